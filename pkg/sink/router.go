// Package sink locates the browser's audio stream in the OS sound server and
// routes it onto a named virtual sink, then records that sink's monitor to a
// scratch file.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// Router moves the controlled browser's playback stream onto a named virtual
// sink, retrying a few times while the meeting's output stream comes up.
// Implemented by shelling out to pactl: no example repo or known Go module
// wraps PulseAudio's introspection/move-sink-input control plane, so this is
// the idiomatic approach (documented in DESIGN.md).
type Router struct {
	SinkName      string
	AppNameFilter string
	Retries       int
	RetryDelay    time.Duration
	logger        meeting.Logger
}

func NewRouter(sinkName, appNameFilter string, logger meeting.Logger) *Router {
	if logger == nil {
		logger = &meeting.NoOpLogger{}
	}
	return &Router{
		SinkName:      sinkName,
		AppNameFilter: appNameFilter,
		Retries:       5,
		RetryDelay:    2 * time.Second,
		logger:        logger,
	}
}

// Route matches the browser's sink-input and moves it onto SinkName, trying
// once and then up to Retries more times, RetryDelay apart. If no match is
// found it returns a *meeting.JobError of kind meeting.KindCaptureDegraded;
// this is non-fatal and the recorder still runs, just against silence.
func (r *Router) Route(ctx context.Context) error {
	for attempt := 0; attempt <= r.Retries; attempt++ {
		id, err := r.findSinkInput(ctx)
		if err == nil {
			return r.moveSinkInput(ctx, id)
		}
		r.logger.Warn("sink-input not yet found", "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.RetryDelay):
		}
	}
	return meeting.NewJobError(meeting.KindCaptureDegraded, fmt.Errorf("no sink-input matched %q after %d retries", r.AppNameFilter, r.Retries))
}

func (r *Router) findSinkInput(ctx context.Context) (int, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return 0, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputID(string(out), r.AppNameFilter)
}

func (r *Router) moveSinkInput(ctx context.Context, sinkInputID int) error {
	cmd := exec.CommandContext(ctx, "pactl", "move-sink-input", strconv.Itoa(sinkInputID), r.SinkName)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pactl move-sink-input: %w: %s", err, stderr.String())
	}
	return nil
}

// parseSinkInputID scans `pactl list sink-inputs` text output for the first
// block whose text (any property, e.g. application.name or media.name)
// contains filter case-insensitively, returning its numeric "Sink Input #N" id.
func parseSinkInputID(listing, filter string) (int, error) {
	blocks := strings.Split(listing, "Sink Input #")
	for _, block := range blocks[1:] {
		lines := strings.SplitN(block, "\n", 2)
		if len(lines) < 1 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}
		if filter == "" || strings.Contains(strings.ToLower(block), strings.ToLower(filter)) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no matching sink-input for filter %q", filter)
}
