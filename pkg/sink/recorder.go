package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/lokutor-ai/meetscribe/pkg/audio"
	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

const (
	recordSampleRate    = 16000
	recordChannels      = 1
	recordBitsPerSample = 16
)

// Recorder captures a named PulseAudio monitor source (the loopback endpoint
// of a virtual sink) and writes mono 16kHz 16-bit PCM to a WAV file.
type Recorder struct {
	MonitorName string
	OutputPath  string
	logger      meeting.Logger

	mctx   *malgo.AllocatedContext
	device *malgo.Device

	mu  sync.Mutex
	pcm bytes.Buffer
}

func NewRecorder(monitorName, outputPath string, logger meeting.Logger) *Recorder {
	if logger == nil {
		logger = &meeting.NoOpLogger{}
	}
	return &Recorder{MonitorName: monitorName, OutputPath: outputPath, logger: logger}
}

// Start opens the named monitor source for capture and begins buffering
// frames in memory; Stop flushes them to OutputPath as a WAV file.
func (r *Recorder) Start(ctx context.Context) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return meeting.NewJobError(meeting.KindCaptureDegraded, fmt.Errorf("init audio context: %w", err))
	}
	r.mctx = mctx

	deviceID, found, err := r.findMonitorDevice(mctx)
	if err != nil || !found {
		r.logger.Warn("monitor source not found, recording silence", "monitor", r.MonitorName, "err", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = recordChannels
	deviceConfig.SampleRate = recordSampleRate
	if found {
		deviceConfig.Capture.DeviceID = deviceID
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			if pInput == nil {
				return
			}
			r.mu.Lock()
			r.pcm.Write(pInput)
			r.mu.Unlock()
		},
	})
	if err != nil {
		mctx.Uninit()
		return meeting.NewJobError(meeting.KindCaptureDegraded, fmt.Errorf("init capture device: %w", err))
	}
	r.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return meeting.NewJobError(meeting.KindCaptureDegraded, fmt.Errorf("start capture device: %w", err))
	}
	return nil
}

// Stop terminates capture and flushes the buffered PCM to OutputPath as WAV.
func (r *Recorder) Stop() error {
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	if r.mctx != nil {
		r.mctx.Uninit()
		r.mctx = nil
	}

	r.mu.Lock()
	pcm := append([]byte(nil), r.pcm.Bytes()...)
	r.mu.Unlock()

	wav := audio.NewWavBuffer(pcm, recordSampleRate, recordChannels, recordBitsPerSample)
	if err := os.WriteFile(r.OutputPath, wav, 0o644); err != nil {
		return fmt.Errorf("write wav file: %w", err)
	}
	return nil
}

func (r *Recorder) findMonitorDevice(mctx *malgo.AllocatedContext) (malgo.DeviceID, bool, error) {
	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceID{}, false, fmt.Errorf("enumerate capture devices: %w", err)
	}
	for _, info := range infos {
		if strings.Contains(info.Name(), r.MonitorName) {
			return info.ID, true, nil
		}
	}
	return malgo.DeviceID{}, false, fmt.Errorf("no capture device matching %q", r.MonitorName)
}
