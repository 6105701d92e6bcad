package asr

import (
	"testing"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

func TestMergeBySpeakerConcatenatesConsecutive(t *testing.T) {
	in := []meeting.DiarizedUtterance{
		{SpeakerLabel: "spk_0", Text: "hello", StartMS: 0, EndMS: 500},
		{SpeakerLabel: "spk_0", Text: "there", StartMS: 500, EndMS: 900},
		{SpeakerLabel: "spk_1", Text: "hi", StartMS: 900, EndMS: 1200},
	}
	out := MergeBySpeaker(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 merged utterances, got %d: %+v", len(out), out)
	}
	if out[0].Text != "hello there" || out[0].EndMS != 900 {
		t.Fatalf("unexpected merged first utterance: %+v", out[0])
	}
	if out[1].SpeakerLabel != "spk_1" || out[1].Text != "hi" {
		t.Fatalf("unexpected second utterance: %+v", out[1])
	}
}

func TestMergeBySpeakerIdempotent(t *testing.T) {
	in := []meeting.DiarizedUtterance{
		{SpeakerLabel: "spk_0", Text: "a", StartMS: 0, EndMS: 100},
		{SpeakerLabel: "spk_1", Text: "b", StartMS: 100, EndMS: 200},
	}
	once := MergeBySpeaker(in)
	twice := MergeBySpeaker(once)
	if len(once) != len(twice) {
		t.Fatalf("merge not idempotent: %+v vs %+v", once, twice)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("merge not idempotent at %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}
