// Package agent implements the in-meeting voice assistant's state machine:
// wake -> acknowledge -> await query -> call LLM -> stream reply ->
// resume listening, preemptible at any point by a barge-in signal.
package agent

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lokutor-ai/meetscribe/pkg/audiooutput"
	"github.com/lokutor-ai/meetscribe/pkg/caption"
	"github.com/lokutor-ai/meetscribe/pkg/meeting"
	"github.com/lokutor-ai/meetscribe/pkg/providers/tts"
)

const (
	ackText     = "Yes, tell me. I'm listening."
	apologyText = "I'm sorry, I couldn't fetch an answer right now."

	// ttsSourceRate is the fixed rate the TTS stream client requests from
	// the remote service; chunks are resampled to the output manager's
	// configured rate whenever the two differ.
	ttsSourceRate = 48000
)

// Agent consumes a Caption Scraper's event stream strictly serially and
// drives the Audio Output Manager and a TTS Stream Client in response.
type Agent struct {
	llm    meeting.LLMProvider
	tts    meeting.TTSStreamProvider
	output *audiooutput.Manager
	logger meeting.Logger

	mu         sync.Mutex
	state      State
	generation int64
	turnCancel context.CancelFunc
}

func New(llm meeting.LLMProvider, tts meeting.TTSStreamProvider, output *audiooutput.Manager, logger meeting.Logger) *Agent {
	if logger == nil {
		logger = &meeting.NoOpLogger{}
	}
	return &Agent{llm: llm, tts: tts, output: output, logger: logger, state: Idle}
}

func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Run processes events from a caption.Scraper until the channel is closed or
// ctx is cancelled; Wake and Utterance events arrive in scraper emission
// order and are handled one at a time.
func (a *Agent) Run(ctx context.Context, events <-chan interface{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.handle(ctx, ev)
		}
	}
}

func (a *Agent) handle(ctx context.Context, ev interface{}) {
	switch e := ev.(type) {
	case caption.WakeEvent:
		a.onWake(ctx)
	case meeting.Utterance:
		a.onUtterance(ctx, e)
	}
}

func (a *Agent) onWake(ctx context.Context) {
	a.mu.Lock()
	if a.state != Idle || a.output.IsPlaying() {
		a.mu.Unlock()
		return
	}
	a.state = Acknowledging
	turnCtx, cancel := context.WithCancel(ctx)
	a.turnCancel = cancel
	gen := atomic.AddInt64(&a.generation, 1)
	a.mu.Unlock()

	go a.speak(turnCtx, gen, ackText, AwaitingQuery)
}

func (a *Agent) onUtterance(ctx context.Context, u meeting.Utterance) {
	a.mu.Lock()
	if a.state != AwaitingQuery {
		a.mu.Unlock()
		return
	}
	a.state = Responding
	turnCtx, cancel := context.WithCancel(ctx)
	a.turnCancel = cancel
	gen := atomic.AddInt64(&a.generation, 1)
	a.mu.Unlock()

	go func() {
		answer, err := a.llm.CompleteGrounded(turnCtx, u.Text)
		if err != nil {
			a.logger.Warn("agent llm failed", "err", err)
			answer = apologyText
		}
		a.speak(turnCtx, gen, answer, Idle)
	}()
}

// speak streams text through the TTS client into the Audio Output Manager,
// then transitions to nextState if this turn is still the current one (a
// barge-in may have bumped the generation and already moved us to Idle).
func (a *Agent) speak(ctx context.Context, gen int64, text string, nextState State) {
	a.output.StartStream()
	dstRate := a.output.SampleRate()
	err := a.tts.StreamSynthesize(ctx, text, func(chunk []byte) error {
		if dstRate != ttsSourceRate {
			resampled, rerr := tts.Resample(chunk, ttsSourceRate, dstRate)
			if rerr != nil {
				return rerr
			}
			chunk = resampled
		}
		a.output.Push(chunk)
		return nil
	})
	a.output.Stop()

	if err != nil {
		a.logger.Warn("tts stream failed", "err", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if atomic.LoadInt64(&a.generation) != gen {
		return // superseded by a barge-in or a later turn; discard
	}
	a.state = nextState
	a.turnCancel = nil
}

// BargeIn is wired as the caption.Scraper's OnBargeIn hook: if currently
// Responding or Acknowledging, stop playback immediately and return to
// Idle; any pending LLM/TTS result is discarded via the generation bump.
func (a *Agent) BargeIn() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Responding && a.state != Acknowledging {
		return
	}
	atomic.AddInt64(&a.generation, 1)
	if a.turnCancel != nil {
		a.turnCancel()
		a.turnCancel = nil
	}
	a.output.Stop()
	a.tts.Abort()
	a.state = Idle
}
