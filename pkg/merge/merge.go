// Package merge zips caption Utterances with diarized ASR utterances in
// temporal order and computes per-speaker statistics.
package merge

import (
	"strings"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// Segments zips captions C and diarized utterances D index-parallel over
// [0, min(len(C), len(D))). Aligning by time instead of index is deliberately
// left unresolved here: index-parallel semantics are preserved and the raw
// arrays stay on the MeetingRecord so a future alignment pass can replace
// this without losing data.
func Segments(captions []meeting.Utterance, diarized []meeting.DiarizedUtterance) []meeting.MergedSegment {
	n := len(captions)
	if len(diarized) < n {
		n = len(diarized)
	}

	out := make([]meeting.MergedSegment, 0, n)
	for i := 0; i < n; i++ {
		c := captions[i]
		d := diarized[i]

		text := strings.TrimSpace(d.Text)
		if text == "" {
			text = strings.TrimSpace(c.Text)
		}

		label := d.SpeakerLabel
		if label == "" {
			label = "Unknown"
		}

		startSec, _ := meeting.ParseTimestamp(c.StartTimestamp)
		endSec, _ := meeting.ParseTimestamp(c.EndTimestamp)
		duration := endSec.Seconds() - startSec.Seconds()
		if duration < 0 {
			duration = 0
		}

		out = append(out, meeting.MergedSegment{
			ID:              i + 1,
			SpeakerLabel:    label,
			SpeakerName:     c.SpeakerName,
			Text:            text,
			StartTimestamp:  c.StartTimestamp,
			EndTimestamp:    c.EndTimestamp,
			DurationSeconds: duration,
		})
	}
	return out
}
