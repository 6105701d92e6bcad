// Package audiooutput implements a single playback engine with a buffered
// mode and a streaming mode, both delivering frames to the page's audio
// bridge and both preemptible.
package audiooutput

import (
	"context"
	"sync"
	"time"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// FrameFunc delivers one PCM frame to the Page Audio Bridge.
type FrameFunc func(chunk []byte) error

const streamQueueCapacity = 64

// Manager guarantees at most one playback worker is active at a time and
// that Stop does not return until the worker has exited, mirroring
// managed_stream.go's cancel-context + WaitGroup teardown discipline.
type Manager struct {
	frame          FrameFunc
	sampleRate     int
	bytesPerSample int
	channels       int
	interChunkGap  time.Duration
	logger         meeting.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	playing    bool
	streamChan chan []byte
}

func NewManager(frame FrameFunc, sampleRate, bytesPerSample, channels int, logger meeting.Logger) *Manager {
	if logger == nil {
		logger = &meeting.NoOpLogger{}
	}
	return &Manager{
		frame:          frame,
		sampleRate:     sampleRate,
		bytesPerSample: bytesPerSample,
		channels:       channels,
		interChunkGap:  20 * time.Millisecond,
		logger:         logger,
	}
}

// SampleRate returns the rate this manager was configured with, so callers
// feeding it PCM from a source at a different rate know what to resample to.
func (m *Manager) SampleRate() int { return m.sampleRate }

// IsPlaying reports whether a worker is currently active.
func (m *Manager) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Play slices pcm into chunkSize frames and plays them at the configured
// inter-chunk gap, preempting any worker already running.
func (m *Manager) Play(pcm []byte, chunkSize int) {
	m.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancel = cancel
	m.playing = true
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.finish()
		for offset := 0; offset < len(pcm); offset += chunkSize {
			end := offset + chunkSize
			if end > len(pcm) {
				end = len(pcm)
			}
			if err := m.frame(pcm[offset:end]); err != nil {
				m.logger.Warn("frame delivery failed", "err", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.interChunkGap):
			}
		}
	}()
}

// StartStream puts the manager into streaming mode: a worker reads chunks
// from an internal bounded queue and plays each for its real duration.
func (m *Manager) StartStream() {
	m.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	queue := make(chan []byte, streamQueueCapacity)
	m.mu.Lock()
	m.cancel = cancel
	m.playing = true
	m.streamChan = queue
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.finish()
		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-queue:
				if !ok {
					return
				}
				if err := m.frame(chunk); err != nil {
					m.logger.Warn("frame delivery failed", "err", err)
				}
				duration := m.chunkDuration(len(chunk))
				select {
				case <-ctx.Done():
					return
				case <-time.After(duration):
				}
			}
		}
	}()
}

// Push is a non-blocking enqueue into the streaming queue; it is dropped if
// the manager is not in streaming mode or the queue is full.
func (m *Manager) Push(chunk []byte) {
	m.mu.Lock()
	q := m.streamChan
	m.mu.Unlock()
	if q == nil {
		return
	}
	select {
	case q <- chunk:
	default:
		m.logger.Warn("stream queue full, dropping chunk")
	}
}

func (m *Manager) chunkDuration(n int) time.Duration {
	denom := m.sampleRate * m.bytesPerSample * m.channels
	if denom <= 0 {
		return 0
	}
	seconds := float64(n) / float64(denom)
	return time.Duration(seconds * float64(time.Second))
}

// Stop cancels the active worker (buffered or streaming) and blocks until
// it has exited, per the invariant "stop guarantees the worker has exited
// before returning".
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	m.mu.Lock()
	m.playing = false
	m.streamChan = nil
	m.cancel = nil
	m.mu.Unlock()
}

func (m *Manager) finish() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
}
