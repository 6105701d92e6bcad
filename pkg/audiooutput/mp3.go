package audiooutput

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3ToPCM decodes an MP3 byte stream into 16-bit PCM samples at the
// decoder's native sample rate, for buffered-mode playback of local audio
// assets.
func DecodeMP3ToPCM(mp3Bytes []byte) (pcm []byte, sampleRate int, channels int, err error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(mp3Bytes))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode mp3: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dec); err != nil {
		return nil, 0, 0, fmt.Errorf("read mp3 frames: %w", err)
	}

	return buf.Bytes(), dec.SampleRate(), 2, nil
}
