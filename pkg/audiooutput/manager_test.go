package audiooutput

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestManagerPlayDeliversAllFrames(t *testing.T) {
	var mu sync.Mutex
	var delivered [][]byte
	m := NewManager(func(chunk []byte) error {
		mu.Lock()
		delivered = append(delivered, append([]byte(nil), chunk...))
		mu.Unlock()
		return nil
	}, 16000, 2, 1, nil)
	m.interChunkGap = time.Millisecond

	pcm := make([]byte, 10)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	m.Play(pcm, 4)
	// Stop preempts the worker, so let it finish all frames first.
	deadline := time.Now().Add(time.Second)
	for m.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(delivered))
	}
	total := 0
	for _, c := range delivered {
		total += len(c)
	}
	if total != len(pcm) {
		t.Fatalf("expected %d total bytes, got %d", len(pcm), total)
	}
}

func TestManagerStopGuaranteesWorkerExited(t *testing.T) {
	var active int32
	m := NewManager(func(chunk []byte) error {
		atomic.AddInt32(&active, 1)
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}, 16000, 2, 1, nil)
	m.interChunkGap = time.Millisecond

	m.Play(make([]byte, 100), 4)
	time.Sleep(2 * time.Millisecond)
	m.Stop()

	if atomic.LoadInt32(&active) != 0 {
		t.Fatal("worker still active after Stop returned")
	}
	if m.IsPlaying() {
		t.Fatal("manager reports playing after Stop")
	}
}

func TestManagerPlayPreemptsPreviousWorker(t *testing.T) {
	var firstFrames int32
	m := NewManager(func(chunk []byte) error {
		atomic.AddInt32(&firstFrames, 1)
		return nil
	}, 16000, 2, 1, nil)
	m.interChunkGap = 10 * time.Millisecond

	m.Play(make([]byte, 1000), 4) // long-running worker
	time.Sleep(2 * time.Millisecond)
	countAfterFirstStart := atomic.LoadInt32(&firstFrames)

	m.Play(make([]byte, 4), 4) // preempts the first worker
	m.Stop()

	// the first worker must not keep delivering frames after being preempted
	if atomic.LoadInt32(&firstFrames) > countAfterFirstStart+1 {
		t.Fatalf("previous worker kept running after preemption: %d -> %d", countAfterFirstStart, firstFrames)
	}
}

func TestManagerStreamingPushAndStop(t *testing.T) {
	var mu sync.Mutex
	var delivered int
	m := NewManager(func(chunk []byte) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	}, 16000, 2, 1, nil)

	m.StartStream()
	m.Push(make([]byte, 320)) // 10ms at 16kHz/16bit/mono
	m.Push(make([]byte, 320))
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	mu.Lock()
	defer mu.Unlock()
	if delivered == 0 {
		t.Fatal("expected at least one streamed chunk delivered")
	}
	if m.IsPlaying() {
		t.Fatal("manager reports playing after Stop")
	}
}
