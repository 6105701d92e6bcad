package tts

import (
	"github.com/tphakala/go-audio-resampler"
)

// Resample converts 16-bit PCM mono audio from srcRate to dstRate, used
// when a stream's frames don't match the output device's configured rate.
func Resample(pcm []byte, srcRate, dstRate int) ([]byte, error) {
	if srcRate == dstRate {
		return pcm, nil
	}
	samples := bytesToInt16(pcm)
	r := resampler.New(srcRate, dstRate, resampler.Linear)
	out, err := r.ResampleInt16(samples)
	if err != nil {
		return nil, err
	}
	return int16ToBytes(out), nil
}

func bytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(b[2*i]) | int16(b[2*i+1])<<8
	}
	return out
}

func int16ToBytes(s []int16) []byte {
	out := make([]byte, len(s)*2)
	for i, v := range s {
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}
