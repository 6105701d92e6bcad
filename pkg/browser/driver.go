// Package browser drives a headless Chrome instance over the Chrome DevTools
// Protocol to join a Google Meet as an unattended guest.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

const (
	micButtonXPath    = `//div[@role='button'][@aria-label[contains(., 'microphone')]]`
	camButtonXPath    = `//div[@role='button'][@aria-label[contains(., 'camera')]]`
	guestNameInput    = `input[type="text"][aria-label][jsname]`
	askToJoinXPath    = `//span[text()='Ask to join']/ancestor::button`
	joinNowXPath       = `//span[text()='Join now']/ancestor::button`
	leaveCallXPath    = `//button[@aria-label='Leave call']`
	waitingRoomXPath   = `//*[contains(text(), "You'll join the call when someone lets you in")]`
	captionsToggleXPath = `//button[@aria-label[contains(., 'Turn on captions')]]`

	pollInterval = 2 * time.Second
)

// Driver owns one browser tab for the lifetime of a meeting job.
type Driver struct {
	logger  meeting.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	allocCtx context.Context
	allocCancel context.CancelFunc
}

// Open launches Chrome, navigates to url, disables mic/camera if present,
// fills the guest-name field, and clicks Ask to join (falling back to
// Join now). It returns once the join control has been clicked; admission
// itself is observed by WaitForAdmission.
func Open(ctx context.Context, url, guestName string, logger meeting.Logger) (*Driver, error) {
	if logger == nil {
		logger = &meeting.NoOpLogger{}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("use-fake-ui-for-media-stream", true),
		chromedp.Flag("start-maximized", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	d := &Driver{logger: logger, ctx: browserCtx, cancel: cancel, allocCtx: allocCtx, allocCancel: allocCancel}

	if err := InjectAudioBridge(browserCtx); err != nil {
		d.Close()
		return nil, meeting.NewJobError(meeting.KindPreconditionFailure, fmt.Errorf("inject audio bridge: %w", err))
	}

	if err := chromedp.Run(browserCtx, chromedp.Navigate(url)); err != nil {
		d.Close()
		return nil, meeting.NewJobError(meeting.KindPreconditionFailure, fmt.Errorf("navigate: %w", err))
	}

	d.toggleOffIfPresent(micButtonXPath, "microphone")
	d.toggleOffIfPresent(camButtonXPath, "camera")

	if guestName != "" {
		if err := chromedp.Run(browserCtx, chromedp.SendKeys(guestNameInput, guestName, chromedp.ByQuery)); err != nil {
			logger.Warn("could not fill guest name", "err", err)
		}
	}

	clicked := d.clickIfPresent(askToJoinXPath, 15*time.Second)
	if !clicked {
		clicked = d.clickIfPresent(joinNowXPath, 15*time.Second)
	}
	if !clicked {
		d.Close()
		return nil, meeting.NewJobError(meeting.KindNotAdmitted, fmt.Errorf("no join control found"))
	}

	return d, nil
}

// WaitForAdmission waits up to timeout for the "Leave call" control to become
// visible (admitted). The waiting-room indicator is not inspected: a guest
// still pending when timeout elapses gets a NotAdmitted error.
func (d *Driver) WaitForAdmission(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.WaitVisible(leaveCallXPath, chromedp.BySearch)); err != nil {
		return meeting.NewJobError(meeting.KindNotAdmitted, fmt.Errorf("admission timeout: %w", err))
	}
	return nil
}

// EnableCaptions toggles live captions on if not already enabled.
func (d *Driver) EnableCaptions() error {
	var nodes []*cdp.Node
	if err := chromedp.Run(d.ctx, chromedp.Nodes(captionsToggleXPath, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		d.logger.Warn("captions toggle lookup failed", "err", err)
		return nil
	}
	if len(nodes) == 0 {
		return nil // already on, or the control isn't present
	}
	if err := chromedp.Run(d.ctx, chromedp.Click(captionsToggleXPath, chromedp.BySearch)); err != nil {
		d.logger.Warn("could not enable captions", "err", err)
	}
	return nil
}

// KeepAlive blocks, polling for the disappearance of the Leave call control,
// until either that happens (kick/end) or maxDuration elapses.
func (d *Driver) KeepAlive(ctx context.Context, maxDuration time.Duration) {
	deadline := time.NewTimer(maxDuration)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-ticker.C:
			var nodes []*cdp.Node
			if err := chromedp.Run(d.ctx, chromedp.Nodes(leaveCallXPath, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
				return // DOM lookup failure inside the loop is treated as end-of-meeting
			}
			if len(nodes) == 0 {
				return
			}
		}
	}
}

// PlayPCM delivers one frame of 16-bit PCM to the page's audio bridge.
func (d *Driver) PlayPCM(samples []int16, sampleRate, channels int) error {
	return PlayPCM(d.ctx, samples, sampleRate, channels)
}

// Close tears down the browser tab and allocator.
func (d *Driver) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
}

// toggleOffIfPresent clicks the mic/camera control only if it is currently
// on (aria-pressed="true"); a control that is already off is left alone.
func (d *Driver) toggleOffIfPresent(xpath, label string) {
	var nodes []*cdp.Node
	if err := chromedp.Run(d.ctx, chromedp.Nodes(xpath, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		d.logger.Warn("control lookup failed", "control", label, "err", err)
		return
	}
	if len(nodes) == 0 {
		d.logger.Warn("control not found, proceeding", "control", label)
		return
	}

	var pressed string
	if err := chromedp.Run(d.ctx, chromedp.AttributeValue(xpath, "aria-pressed", &pressed, nil, chromedp.BySearch)); err != nil {
		d.logger.Warn("control state lookup failed", "control", label, "err", err)
		return
	}
	if pressed != "true" {
		return
	}

	if err := chromedp.Run(d.ctx, chromedp.Click(xpath, chromedp.BySearch)); err != nil {
		d.logger.Warn("could not toggle control off", "control", label, "err", err)
	}
}

func (d *Driver) clickIfPresent(xpath string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Click(xpath, chromedp.BySearch)); err != nil {
		return false
	}
	return true
}
