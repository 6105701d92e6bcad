package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lokutor-ai/meetscribe/pkg/audiooutput"
	"github.com/lokutor-ai/meetscribe/pkg/caption"
	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

type fakeLLM struct {
	answer string
	err    error
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) { return f.answer, f.err }
func (f *fakeLLM) CompleteGrounded(ctx context.Context, prompt string) (string, error) {
	return f.answer, f.err
}
func (f *fakeLLM) CompleteStructured(ctx context.Context, prompt string, out interface{}) error {
	return f.err
}
func (f *fakeLLM) Name() string { return "fake-llm" }

type fakeTTS struct {
	mu       sync.Mutex
	aborted  bool
	spoken   []string
	chunkLen int
}

func (f *fakeTTS) StreamSynthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	for i := 0; i < 20; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
		if err := onChunk(make([]byte, 64)); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTTS) Abort() error {
	f.mu.Lock()
	f.aborted = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTTS) Name() string { return "fake-tts" }

func newTestAgent(llm meeting.LLMProvider, tts *fakeTTS) (*Agent, *audiooutput.Manager) {
	output := audiooutput.NewManager(func(chunk []byte) error { return nil }, 48000, 2, 1, nil)
	return New(llm, tts, output, nil), output
}

func TestAgentResamplesWhenOutputRateDiffers(t *testing.T) {
	var mu sync.Mutex
	var frameLens []int
	output := audiooutput.NewManager(func(chunk []byte) error {
		mu.Lock()
		frameLens = append(frameLens, len(chunk))
		mu.Unlock()
		return nil
	}, 16000, 2, 1, nil)

	tts := &fakeTTS{}
	a := New(&fakeLLM{answer: "answer"}, tts, output, nil)
	ctx := context.Background()

	a.onWake(ctx)
	waitFor(t, a, AwaitingQuery)
	a.onUtterance(ctx, meeting.Utterance{Text: "question"})
	waitFor(t, a, Idle)

	mu.Lock()
	defer mu.Unlock()
	if len(frameLens) == 0 {
		t.Fatal("expected at least one frame delivered to the output manager")
	}
	for _, n := range frameLens {
		// fakeTTS emits 64-byte chunks at 48kHz; resampled to 16kHz the
		// frame should shrink roughly by a factor of 3.
		if n >= 64 {
			t.Fatalf("expected resampled frame shorter than source chunk, got %d bytes", n)
		}
	}
}

func waitFor(t *testing.T, a *Agent, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if a.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, got %s", want, a.State())
}

func TestAgentWakeThenQueryFlow(t *testing.T) {
	tts := &fakeTTS{}
	a, _ := newTestAgent(&fakeLLM{answer: "the answer"}, tts)
	ctx := context.Background()

	a.onWake(ctx)
	waitFor(t, a, AwaitingQuery)

	a.onUtterance(ctx, meeting.Utterance{Text: "what time is it"})
	waitFor(t, a, Idle)

	tts.mu.Lock()
	defer tts.mu.Unlock()
	if len(tts.spoken) != 2 {
		t.Fatalf("expected 2 TTS turns (ack + answer), got %d: %+v", len(tts.spoken), tts.spoken)
	}
	if tts.spoken[0] != ackText {
		t.Fatalf("expected first turn to be the acknowledgement, got %q", tts.spoken[0])
	}
	if tts.spoken[1] != "the answer" {
		t.Fatalf("expected second turn to be the LLM answer, got %q", tts.spoken[1])
	}
}

func TestAgentLLMFailureSpeaksApology(t *testing.T) {
	tts := &fakeTTS{}
	a, _ := newTestAgent(&fakeLLM{err: context.DeadlineExceeded}, tts)
	ctx := context.Background()

	a.onWake(ctx)
	waitFor(t, a, AwaitingQuery)

	a.onUtterance(ctx, meeting.Utterance{Text: "anything"})
	waitFor(t, a, Idle)

	tts.mu.Lock()
	defer tts.mu.Unlock()
	if len(tts.spoken) != 2 || tts.spoken[1] != apologyText {
		t.Fatalf("expected apology as second turn, got %+v", tts.spoken)
	}
}

func TestAgentIgnoresUtteranceOutsideAwaitingQuery(t *testing.T) {
	tts := &fakeTTS{}
	a, _ := newTestAgent(&fakeLLM{answer: "x"}, tts)
	ctx := context.Background()

	a.onUtterance(ctx, meeting.Utterance{Text: "ignored"})
	time.Sleep(10 * time.Millisecond)

	if a.State() != Idle {
		t.Fatalf("expected Idle, got %s", a.State())
	}
	tts.mu.Lock()
	defer tts.mu.Unlock()
	if len(tts.spoken) != 0 {
		t.Fatal("expected no TTS turns when no wake has occurred")
	}
}

func TestAgentBargeInStopsPlaybackAndReturnsToIdle(t *testing.T) {
	tts := &fakeTTS{}
	a, output := newTestAgent(&fakeLLM{answer: "a long answer"}, tts)
	ctx := context.Background()

	a.onWake(ctx)
	waitFor(t, a, AwaitingQuery)
	a.onUtterance(ctx, meeting.Utterance{Text: "question"})

	// Give the async turn a moment to enter Responding before interrupting.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && a.State() != Responding {
		time.Sleep(time.Millisecond)
	}

	a.BargeIn()

	if output.IsPlaying() {
		t.Fatal("expected playback stopped immediately after BargeIn")
	}
	waitFor(t, a, Idle)

	tts.mu.Lock()
	defer tts.mu.Unlock()
	if !tts.aborted {
		t.Fatal("expected TTS Abort to have been called")
	}
}

func TestAgentRunConsumesScraperEvents(t *testing.T) {
	tts := &fakeTTS{}
	a, _ := newTestAgent(&fakeLLM{answer: "done"}, tts)
	events := make(chan interface{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.Run(ctx, events)

	events <- caption.WakeEvent{Speaker: "alice", Text: "hello meeting assistant, what time is it"}
	waitFor(t, a, AwaitingQuery)

	events <- meeting.Utterance{SpeakerName: "alice", Text: "what time is it"}
	waitFor(t, a, Idle)
}
