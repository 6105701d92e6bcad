package merge

import (
	"testing"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// S5: merge with aligned lengths.
func TestSegmentsS5Aligned(t *testing.T) {
	captions := []meeting.Utterance{
		{SpeakerName: "Alice", Text: "hi", StartTimestamp: "00:02", EndTimestamp: "00:03"},
		{SpeakerName: "Bob", Text: "hello", StartTimestamp: "00:05", EndTimestamp: "00:06"},
	}
	diarized := []meeting.DiarizedUtterance{
		{SpeakerLabel: "spk_0", Text: "Hi.", StartMS: 2000, EndMS: 3000},
		{SpeakerLabel: "spk_1", Text: "Hello.", StartMS: 5000, EndMS: 6000},
	}
	segs := Segments(captions, diarized)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].SpeakerName != "Alice" || segs[0].Text != "Hi." {
		t.Fatalf("unexpected first segment: %+v", segs[0])
	}
	if segs[1].SpeakerName != "Bob" || segs[1].Text != "Hello." {
		t.Fatalf("unexpected second segment: %+v", segs[1])
	}
}

// Boundary: |C| < |D| yields exactly |C| MergedSegments.
func TestSegmentsShorterCaptionsBounds(t *testing.T) {
	captions := []meeting.Utterance{
		{SpeakerName: "Alice", Text: "hi", StartTimestamp: "00:01", EndTimestamp: "00:02"},
	}
	diarized := []meeting.DiarizedUtterance{
		{SpeakerLabel: "spk_0", Text: "Hi.", StartMS: 1000, EndMS: 2000},
		{SpeakerLabel: "spk_1", Text: "extra", StartMS: 3000, EndMS: 4000},
	}
	segs := Segments(captions, diarized)
	if len(segs) != 1 {
		t.Fatalf("expected exactly 1 segment, got %d", len(segs))
	}
}

// Invariant 1 & 2: non-negative duration, start <= end, non-decreasing start.
func TestSegmentsInvariants(t *testing.T) {
	captions := []meeting.Utterance{
		{SpeakerName: "Alice", Text: "a", StartTimestamp: "00:01", EndTimestamp: "00:02"},
		{SpeakerName: "Alice", Text: "b", StartTimestamp: "00:05", EndTimestamp: "00:06"},
	}
	diarized := []meeting.DiarizedUtterance{
		{SpeakerLabel: "spk_0", Text: "a", StartMS: 1000, EndMS: 2000},
		{SpeakerLabel: "spk_0", Text: "b", StartMS: 5000, EndMS: 6000},
	}
	segs := Segments(captions, diarized)
	var lastStart float64
	for i, s := range segs {
		if s.DurationSeconds < 0 {
			t.Fatalf("negative duration at %d: %+v", i, s)
		}
		start, _ := meeting.ParseTimestamp(s.StartTimestamp)
		if i > 0 && start.Seconds() < lastStart {
			t.Fatalf("non-increasing start at %d", i)
		}
		lastStart = start.Seconds()
	}
}

// Empty ASR speaker labels fall back to "Unknown" rather than staying blank.
func TestSegmentsEmptyLabelFallsBackToUnknown(t *testing.T) {
	captions := []meeting.Utterance{
		{SpeakerName: "Alice", Text: "hi", StartTimestamp: "00:01", EndTimestamp: "00:02"},
	}
	diarized := []meeting.DiarizedUtterance{
		{SpeakerLabel: "", Text: "hi", StartMS: 1000, EndMS: 2000},
	}
	segs := Segments(captions, diarized)
	if len(segs) != 1 || segs[0].SpeakerLabel != "Unknown" {
		t.Fatalf("expected fallback label Unknown, got %+v", segs)
	}
}

func TestStatsAggregation(t *testing.T) {
	segs := []meeting.MergedSegment{
		{SpeakerName: "Alice", Text: "hi there", DurationSeconds: 2},
		{SpeakerName: "Alice", Text: "again", DurationSeconds: 1},
		{SpeakerName: "Bob", Text: "hello", DurationSeconds: 1},
	}
	stats := Stats(segs)
	alice := stats["Alice"]
	if alice.Segments != 2 || alice.TotalWords != 3 {
		t.Fatalf("unexpected alice stats: %+v", alice)
	}
	if alice.PercentageOfTime <= 0 {
		t.Fatalf("expected positive percentage, got %+v", alice)
	}
}
