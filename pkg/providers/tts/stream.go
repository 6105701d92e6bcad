// Package tts maintains a WebSocket session to a remote text-to-speech
// service and streams 48 kHz linear PCM frames back to the caller.
package tts

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// StreamClient speaks to a remote TTS over a persistent WebSocket
// connection, lazily dialed and cached under a mutex exactly as
// LokutorTTS.getConn did.
type StreamClient struct {
	apiKey string
	host   string
	model  string

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

func NewStreamClient(apiKey, host, model string) *StreamClient {
	if host == "" {
		host = "api.lokutor.com"
	}
	if model == "" {
		model = "aura-2-thalia-en"
	}
	return &StreamClient{apiKey: apiKey, host: host, model: model}
}

func (c *StreamClient) Name() string { return "tts-stream:" + c.model }

func (c *StreamClient) getConn(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}
	u := url.URL{Scheme: "wss", Host: c.host, Path: "/v1/speak", RawQuery: "api_key=" + c.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connect to tts: %w", err)
	}
	c.conn = conn
	return conn, nil
}

// StreamSynthesize sends text, then reads interleaved binary PCM frames and
// control events until a close/error event, forwarding each frame to
// onChunk (typically audiooutput.Manager.Push after resampling).
func (c *StreamClient) StreamSynthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	conn, err := c.getConn(ctx)
	if err != nil {
		return meeting.NewJobError(meeting.KindTTSError, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	req := map[string]interface{}{
		"text":          text,
		"model":         c.model,
		"encoding":      "linear16",
		"sample_rate":   48000,
		"flush":         true,
	}
	if err := wsjson.Write(ctx, conn, req); err != nil {
		c.dropConn()
		return meeting.NewJobError(meeting.KindTTSError, fmt.Errorf("send synthesis request: %w", err))
	}

	for {
		msgType, payload, err := conn.Read(ctx)
		if err != nil {
			c.dropConn()
			if ctx.Err() != nil {
				return nil // aborted; not a TTS failure
			}
			return meeting.NewJobError(meeting.KindTTSError, fmt.Errorf("read from tts: %w", err))
		}

		switch msgType {
		case websocket.MessageBinary:
			if err := onChunk(payload); err != nil {
				return err
			}
		case websocket.MessageText:
			switch string(payload) {
			case "EOS", "close":
				return nil
			default:
				return meeting.NewJobError(meeting.KindTTSError, fmt.Errorf("tts error event: %s", payload))
			}
		}
	}
}

// Abort cancels any in-flight StreamSynthesize call, used by the Meet
// Agent's barge-in handling.
func (c *StreamClient) Abort() error {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (c *StreamClient) dropConn() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close(websocket.StatusAbnormalClosure, "tts stream error")
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *StreamClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close(websocket.StatusNormalClosure, "")
		c.conn = nil
		return err
	}
	return nil
}

var _ meeting.TTSStreamProvider = (*StreamClient)(nil)
