package meeting

import (
	"fmt"
	"time"
)

// FormatTimestamp renders an elapsed duration as MM:SS, or HH:MM:SS once the
// hour boundary is crossed, matching the caption scraper's finalization
// timestamps.
func FormatTimestamp(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ParseTimestamp accepts both HH:MM:SS and MM:SS and returns the elapsed
// duration. It is the left inverse of FormatTimestamp's round-trip law:
// FormatTimestamp(ParseTimestamp(FormatTimestamp(ParseTimestamp(x)))) ==
// FormatTimestamp(ParseTimestamp(x)) for every recognized format.
func ParseTimestamp(s string) (time.Duration, error) {
	var h, m, sec int
	switch countColons(s) {
	case 1:
		if _, err := fmt.Sscanf(s, "%d:%d", &m, &sec); err != nil {
			return 0, fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	case 2:
		if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
			return 0, fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	default:
		return 0, fmt.Errorf("parse timestamp %q: unrecognized format", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

func countColons(s string) int {
	n := 0
	for _, r := range s {
		if r == ':' {
			n++
		}
	}
	return n
}
