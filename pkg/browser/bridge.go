package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// audioBridgeScript locates the page's active RTCPeerConnection, creates a
// MediaStreamTrackGenerator, attaches it as an outbound track, and exposes a
// persistent play() function the audio output manager calls once per chunk.
const audioBridgeScript = `
(function() {
  if (window.__meetscribeBridge) return;
  function findPeerConnection() {
    for (const key in window) {
      try {
        if (window[key] instanceof RTCPeerConnection) return window[key];
      } catch (e) {}
    }
    return null;
  }
  const generator = new MediaStreamTrackGenerator({kind: "audio"});
  const writer = generator.writable.getWriter();
  let attached = false;
  let nextTimestamp = 0;

  window.__meetscribeBridge = {
    play: function(samples, sampleRate, channels) {
      if (!attached) {
        const pc = findPeerConnection();
        if (pc) {
          pc.addTrack(generator);
          attached = true;
        }
      }
      const data = new Int16Array(samples);
      const frame = new AudioData({
        format: "s16",
        sampleRate: sampleRate,
        numberOfFrames: data.length / channels,
        numberOfChannels: channels,
        timestamp: nextTimestamp,
        data: data,
      });
      nextTimestamp += Math.floor((data.length / channels) / sampleRate * 1e6);
      writer.write(frame);
    }
  };
})();
`

// InjectAudioBridge adds the bridge script to every document the page loads,
// before any page script runs — it must be registered before Navigate.
func InjectAudioBridge(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := chromedp.AddScriptToEvaluateOnNewDocument(audioBridgeScript).Do(ctx)
		return err
	}))
}

// PlayPCM calls the injected bridge's play() with a base64-free inline array.
func PlayPCM(ctx context.Context, samples []int16, sampleRate, channels int) error {
	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = int(s)
	}
	script := fmt.Sprintf("window.__meetscribeBridge.play(%s, %d, %d)", jsIntArray(ints), sampleRate, channels)
	return chromedp.Run(ctx, chromedp.Evaluate(script, nil))
}

func jsIntArray(v []int) string {
	s := "["
	for i, n := range v {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", n)
	}
	return s + "]"
}
