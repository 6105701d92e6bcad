// Package caption implements the Caption Scraper: a cooperative polling
// state machine that turns a browser page's caption region into finalized,
// timestamped Utterances and a wake-phrase trigger event.
package caption

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// CaptionBlock is one DOM caption block as read from the page.
type CaptionBlock struct {
	Speaker string
	Text    string
}

// Source reads the current ordered caption blocks from the page. present is
// false when the caption region itself could not be located this tick.
type Source interface {
	ReadBlocks(ctx context.Context) (blocks []CaptionBlock, present bool, err error)
}

// WakeEvent is emitted when a finalization's full stabilized text contains
// the configured wake phrase, published before the corresponding Utterance.
type WakeEvent struct {
	Speaker string
	Text    string
	At      time.Time
}

const (
	defaultTickInterval = 1500 * time.Millisecond
	defaultStableTime   = 1500 * time.Millisecond
	defaultWakePhrase   = "hello meeting assistant"
)

// Scraper owns the per-speaker tracker map exclusively; callers only ever
// observe it through Events() and IsSpeakerActive.
type Scraper struct {
	source       Source
	logger       meeting.Logger
	tickInterval time.Duration
	stableTime   time.Duration
	wakePhrase   string
	meetingStart time.Time
	now          func() time.Time

	// AudioPlaying reports whether the Audio Output Manager is currently
	// playing; OnBargeIn is invoked to raise a preemption signal. Both are
	// supplied by the caller (the Meet Agent / Audio Output Manager wiring)
	// so this package never imports audiooutput directly.
	AudioPlaying func() bool
	OnBargeIn    func()

	mu       sync.Mutex
	trackers map[string]*meeting.CaptionTrackerState

	events chan interface{}
}

func New(source Source, meetingStart time.Time, logger meeting.Logger) *Scraper {
	if logger == nil {
		logger = &meeting.NoOpLogger{}
	}
	return &Scraper{
		source:       source,
		logger:       logger,
		tickInterval: defaultTickInterval,
		stableTime:   defaultStableTime,
		wakePhrase:   defaultWakePhrase,
		meetingStart: meetingStart,
		now:          time.Now,
		AudioPlaying: func() bool { return false },
		OnBargeIn:    func() {},
		trackers:     make(map[string]*meeting.CaptionTrackerState),
		events:       make(chan interface{}, 64),
	}
}

// Events is the single-producer, single-consumer channel carrying WakeEvent
// and meeting.Utterance values in emission order.
func (s *Scraper) Events() <-chan interface{} { return s.events }

// IsSpeakerActive is the synchronous predicate §9 calls out so the agent
// never needs to re-poll the DOM directly.
func (s *Scraper) IsSpeakerActive(speaker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.trackers[speaker]
	return ok && !tr.Finalized
}

// Run polls every tickInterval until ctx is cancelled, then closes Events().
func (s *Scraper) Run(ctx context.Context) {
	defer close(s.events)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scraper) tick(ctx context.Context) {
	blocks, present, err := s.source.ReadBlocks(ctx)
	if err != nil {
		s.logger.Warn("caption region read failed", "err", err)
		return
	}
	if !present {
		return
	}

	merged := mergeConsecutiveSameSpeaker(blocks)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range merged {
		tr, ok := s.trackers[b.Speaker]
		if !ok {
			s.trackers[b.Speaker] = &meeting.CaptionTrackerState{
				CurrentText:         b.Text,
				LastChangeMonotonic: now,
				Finalized:           false,
			}
			continue
		}
		if tr.CurrentText != b.Text {
			grew := len(b.Text) > len(tr.CurrentText) && strings.HasPrefix(b.Text, tr.CurrentText)
			tr.CurrentText = b.Text
			tr.LastChangeMonotonic = now
			tr.Finalized = false
			if grew && s.AudioPlaying() {
				s.OnBargeIn()
			}
			continue
		}
		if !tr.Finalized && now.Sub(tr.LastChangeMonotonic) > s.stableTime {
			s.finalize(b.Speaker, tr, now)
		}
	}
}

func (s *Scraper) finalize(speaker string, tr *meeting.CaptionTrackerState, now time.Time) {
	delta := tr.CurrentText
	if tr.LastFinalizedText != "" && strings.HasPrefix(tr.CurrentText, tr.LastFinalizedText) {
		delta = strings.TrimPrefix(tr.CurrentText, tr.LastFinalizedText)
		delta = strings.TrimPrefix(delta, ". ")
	}

	if strings.Contains(strings.ToLower(tr.CurrentText), s.wakePhrase) {
		s.events <- WakeEvent{Speaker: speaker, Text: tr.CurrentText, At: now}
	}

	tr.LastFinalizedText = tr.CurrentText
	tr.Finalized = true

	if delta == "" {
		return
	}

	ts := meeting.FormatTimestamp(now.Sub(s.meetingStart))
	s.events <- meeting.Utterance{
		SpeakerName:    speaker,
		Text:           delta,
		StartTimestamp: ts,
		EndTimestamp:   ts,
	}
}

// mergeConsecutiveSameSpeaker collapses adjacent same-speaker blocks and
// drops blocks with an empty speaker.
func mergeConsecutiveSameSpeaker(blocks []CaptionBlock) []CaptionBlock {
	var out []CaptionBlock
	for _, b := range blocks {
		if b.Speaker == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Speaker == b.Speaker {
			out[n-1].Text = strings.TrimSpace(out[n-1].Text + " " + b.Text)
			continue
		}
		out = append(out, b)
	}
	return out
}
