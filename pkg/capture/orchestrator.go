// Package capture implements the job orchestrator: the single sequential
// driver of one meeting capture job, from browser join through persisted
// MeetingRecord. Every cooperating task derives its context from one owned,
// cancellable parent context, and teardown runs in reverse construction order.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lokutor-ai/meetscribe/pkg/agent"
	"github.com/lokutor-ai/meetscribe/pkg/audiooutput"
	"github.com/lokutor-ai/meetscribe/pkg/browser"
	"github.com/lokutor-ai/meetscribe/pkg/caption"
	"github.com/lokutor-ai/meetscribe/pkg/merge"
	"github.com/lokutor-ai/meetscribe/pkg/meeting"
	"github.com/lokutor-ai/meetscribe/pkg/providers/vector"
	"github.com/lokutor-ai/meetscribe/pkg/sink"
	"github.com/lokutor-ai/meetscribe/pkg/summarizer"
)

const (
	defaultRecordingBudget = 300 * time.Second
	// ttsSampleRate/ttsChannels match the remote TTS WebSocket's fixed
	// linear16 48kHz mono output.
	ttsSampleRate     = 48000
	ttsBytesPerSample = 2
	ttsChannels       = 1
)

// Orchestrator wires every collaborator behind the meeting package's
// interfaces and runs one job's ten-step lifecycle.
type Orchestrator struct {
	ScratchRoot   string
	SinkName      string
	AppNameFilter string

	ASR        meeting.ASRProvider
	LLM        meeting.LLMProvider
	Embed      meeting.EmbeddingProvider
	TTS        meeting.TTSStreamProvider
	Vector     meeting.VectorStore
	Blob       meeting.BlobStore
	Store      meeting.MeetingStore

	Logger meeting.Logger
}

// Run executes one meeting job to completion, returning the persisted
// record (even a partially-failed one) or a fatal error for steps that
// record nothing (job input rejected before a meeting ever started).
func (o *Orchestrator) Run(ctx context.Context, input meeting.JobInput) (*meeting.MeetingRecord, error) {
	jobsStarted.Inc()
	budget := input.RecordingBudget
	if budget <= 0 {
		budget = defaultRecordingBudget
	}

	record := &meeting.MeetingRecord{
		MeetingID:   uuid.NewString(),
		MeetingURL:  input.MeetURL,
		UserID:      input.UserID,
		StartTime:   time.Now().UTC(),
		FieldErrors: make(map[string]string),
	}

	// Step 1: allocate scratch directory.
	scratchDir := filepath.Join(o.ScratchRoot, input.UserID, input.MeetKey, record.StartTime.Format("20060102T150405Z"))
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		recordFailure(string(meeting.KindPreconditionFailure))
		return nil, meeting.NewJobError(meeting.KindPreconditionFailure, fmt.Errorf("allocate scratch dir: %w", err))
	}
	audioPath := filepath.Join(scratchDir, "meeting_audio.wav")
	defer os.RemoveAll(scratchDir) // step 10, always attempted

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Step 2: drive the Browser Driver; on admission start the Sink Router,
	// Caption Scraper, and Meet Agent concurrently.
	guestName := input.GuestName
	if guestName == "" {
		guestName = "Bot Recorder"
	}
	driver, err := browser.Open(jobCtx, input.MeetURL, guestName, o.Logger)
	if err != nil {
		recordFailure(kindOf(err))
		return nil, err // step 2 failure aborts, nothing recorded
	}
	defer driver.Close()

	if err := driver.WaitForAdmission(budget); err != nil {
		recordFailure(kindOf(err))
		return nil, err
	}
	if err := driver.EnableCaptions(); err != nil {
		o.Logger.Warn("enable captions failed", "err", err)
	}

	router := sink.NewRouter(o.SinkName, o.AppNameFilter, o.Logger)
	if err := router.Route(jobCtx); err != nil {
		record.Status = meeting.KindCaptureDegraded
		record.FieldErrors["audio"] = err.Error()
		o.Logger.Warn("sink routing degraded, proceeding without captured audio", "err", err)
	}

	recorder := sink.NewRecorder(o.SinkName+".monitor", audioPath, o.Logger)
	if err := recorder.Start(jobCtx); err != nil {
		record.Status = meeting.KindCaptureDegraded
		record.FieldErrors["audio"] = err.Error()
		o.Logger.Warn("recorder start degraded, proceeding without captured audio", "err", err)
	}

	captionSource := browser.NewCaptionSource(driver)
	scraper := caption.New(captionSource, record.StartTime, o.Logger)

	output := audioOutputFor(driver, o.Logger)
	meetAgent := agent.New(o.LLM, o.TTS, output, o.Logger)
	scraper.AudioPlaying = output.IsPlaying
	scraper.OnBargeIn = meetAgent.BargeIn

	var wg sync.WaitGroup
	var captions []meeting.Utterance
	var captionsMu sync.Mutex

	agentEvents := make(chan interface{}, 64)

	wg.Add(3)
	go func() {
		defer wg.Done()
		scraper.Run(jobCtx)
	}()
	go func() {
		defer wg.Done()
		for ev := range scraper.Events() {
			if u, ok := ev.(meeting.Utterance); ok {
				captionsMu.Lock()
				captions = append(captions, u)
				captionsMu.Unlock()
			}
			select {
			case agentEvents <- ev:
			case <-jobCtx.Done():
			}
		}
	}()
	go func() {
		defer wg.Done()
		meetAgent.Run(jobCtx, agentEvents)
	}()

	// Step 3: wait for keep-alive to return (kick, end-of-meeting, or budget).
	driver.KeepAlive(jobCtx, budget)

	// Step 4: stop Caption Scraper, Meet Agent, Audio Output Manager, Sink
	// Router, in that order. Both the scraper and the agent select on
	// jobCtx.Done(), so cancel alone unwinds all three goroutines; the
	// collector is the sole writer to agentEvents, so it is never closed
	// here to avoid a send-on-closed-channel race with it.
	cancel()
	wg.Wait()
	output.Stop()
	if err := recorder.Stop(); err != nil {
		record.Status = meeting.KindCaptureDegraded
		record.FieldErrors["audio"] = err.Error()
	}

	captionsMu.Lock()
	record.Captions = captions
	captionsMu.Unlock()

	// Step 5: ASR.
	diarized, err := o.ASR.Transcribe(ctx, audioPath)
	if err != nil {
		jobErr := meeting.NewJobError(meeting.KindTranscriptionFailed, err)
		record.Status = meeting.KindTranscriptionFailed
		record.FieldErrors["transcript"] = jobErr.Error()
		o.finishWithAudioOnly(ctx, record, audioPath)
		recordFailure(string(meeting.KindTranscriptionFailed))
		return record, jobErr
	}
	record.Transcript = diarized

	// Step 6: Merge & Stats.
	record.Merged = merge.Segments(record.Captions, diarized)
	record.Stats = merge.Stats(record.Merged)

	// Step 7: Summarizer and Vector Indexer run in parallel; both read-only
	// against the transcript.
	transcript := renderTranscript(record.Merged)
	var summaryErr, indexErr error
	var summary meeting.MeetingSummary
	var sw sync.WaitGroup
	sw.Add(2)
	go func() {
		defer sw.Done()
		summary, summaryErr = summarizer.Summarize(ctx, transcript, o.LLM)
	}()
	go func() {
		defer sw.Done()
		if o.Vector == nil {
			return
		}
		chunks := vector.ChunkTranscript(transcript)
		indexErr = o.Vector.Upsert(ctx, record.MeetingID, chunks, o.Embed)
	}()
	sw.Wait()

	if summaryErr != nil {
		record.FieldErrors["summary"] = summaryErr.Error()
		if record.Status == "" {
			record.Status = meeting.KindSummarizationFailed
		}
	} else {
		record.Summary = summary
	}
	if indexErr != nil {
		record.FieldErrors["index"] = indexErr.Error()
		if record.Status == "" {
			record.Status = meeting.KindIndexingFailed
		}
	}

	// Step 8: upload audio to the blob store.
	if o.Blob != nil {
		key := fmt.Sprintf("meetings/%s/audio.wav", record.MeetingID)
		if uploadedKey, err := o.Blob.Upload(ctx, audioPath, key); err != nil {
			record.FieldErrors["audio_blob"] = err.Error()
		} else {
			record.AudioBlobKey = uploadedKey
		}
	}

	// Step 9: persist.
	if err := o.Store.SaveMeeting(ctx, record); err != nil {
		recordFailure("persistence")
		return record, fmt.Errorf("save meeting record: %w", err)
	}

	jobsSucceeded.Inc()
	return record, nil
}

// finishWithAudioOnly runs the best-effort steps that still apply when ASR
// failed fatally: the raw audio must not be lost even without a transcript.
func (o *Orchestrator) finishWithAudioOnly(ctx context.Context, record *meeting.MeetingRecord, audioPath string) {
	if o.Blob != nil {
		key := fmt.Sprintf("meetings/%s/audio.wav", record.MeetingID)
		if uploadedKey, err := o.Blob.Upload(ctx, audioPath, key); err == nil {
			record.AudioBlobKey = uploadedKey
		}
	}
	if o.Store != nil {
		_ = o.Store.SaveMeeting(ctx, record)
	}
}

func kindOf(err error) string {
	if je, ok := err.(*meeting.JobError); ok {
		return string(je.Kind)
	}
	return "unknown"
}

func renderTranscript(segments []meeting.MergedSegment) string {
	var b strings.Builder
	for _, s := range segments {
		name := s.SpeakerName
		if name == "" {
			name = s.SpeakerLabel
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", s.StartTimestamp, name, s.Text)
	}
	return b.String()
}

// audioOutputFor wires the Audio Output Manager's frame delivery to the
// page bridge owned by driver, at the fixed 48kHz/16-bit/mono rate the
// remote TTS WebSocket always emits.
func audioOutputFor(driver *browser.Driver, logger meeting.Logger) *audiooutput.Manager {
	frame := func(chunk []byte) error {
		samples := bytesToInt16LE(chunk)
		return driver.PlayPCM(samples, ttsSampleRate, ttsChannels)
	}
	return audiooutput.NewManager(frame, ttsSampleRate, ttsBytesPerSample, ttsChannels, logger)
}

func bytesToInt16LE(b []byte) []int16 {
	n := len(b) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
	}
	return out
}
