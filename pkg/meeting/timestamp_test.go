package meeting

import "testing"

func TestTimestampRoundTrip(t *testing.T) {
	cases := []string{"00:00", "00:02", "01:30", "59:59", "01:00:00", "02:15:07"}
	for _, c := range cases {
		d, err := ParseTimestamp(c)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", c, err)
		}
		once := FormatTimestamp(d)
		d2, err := ParseTimestamp(once)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", once, err)
		}
		twice := FormatTimestamp(d2)
		if once != twice {
			t.Fatalf("round-trip not idempotent: %q -> %q -> %q", c, once, twice)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	if _, err := ParseTimestamp("not-a-timestamp"); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}

func TestKindFatal(t *testing.T) {
	if !KindNotAdmitted.Fatal() {
		t.Error("NotAdmitted should be fatal")
	}
	if KindCaptureDegraded.Fatal() {
		t.Error("CaptureDegraded should not be fatal")
	}
	if !KindTranscriptionFailed.Fatal() {
		t.Error("TranscriptionFailure should be fatal")
	}
}
