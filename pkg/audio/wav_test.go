package audio

import (
	"encoding/binary"
	"testing"
)

func TestNewWavBufferHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	wav := NewWavBuffer(pcm, 16000, 1, 16)

	if string(wav[0:4]) != "RIFF" {
		t.Fatalf("missing RIFF header: %q", wav[0:4])
	}
	if string(wav[8:12]) != "WAVE" {
		t.Fatalf("missing WAVE header: %q", wav[8:12])
	}
	sampleRate := binary.LittleEndian.Uint32(wav[24:28])
	if sampleRate != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", sampleRate)
	}
	channels := binary.LittleEndian.Uint16(wav[22:24])
	if channels != 1 {
		t.Fatalf("expected 1 channel, got %d", channels)
	}
	bitsPerSample := binary.LittleEndian.Uint16(wav[34:36])
	if bitsPerSample != 16 {
		t.Fatalf("expected 16 bits per sample, got %d", bitsPerSample)
	}
	dataSize := binary.LittleEndian.Uint32(wav[40:44])
	if int(dataSize) != len(pcm) {
		t.Fatalf("expected data size %d, got %d", len(pcm), dataSize)
	}
}

func TestNewWavBufferStereo(t *testing.T) {
	pcm := make([]byte, 16)
	wav := NewWavBuffer(pcm, 48000, 2, 16)

	channels := binary.LittleEndian.Uint16(wav[22:24])
	if channels != 2 {
		t.Fatalf("expected 2 channels, got %d", channels)
	}
	blockAlign := binary.LittleEndian.Uint16(wav[32:34])
	if blockAlign != 4 {
		t.Fatalf("expected block align 4, got %d", blockAlign)
	}
	byteRate := binary.LittleEndian.Uint32(wav[28:32])
	if byteRate != 48000*4 {
		t.Fatalf("expected byte rate %d, got %d", 48000*4, byteRate)
	}
}
