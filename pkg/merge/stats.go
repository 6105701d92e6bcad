package merge

import (
	"strings"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// Stats accumulates per-speaker-name statistics over MergedSegments. These
// are informational; callers may drop them without breaking downstream
// steps.
func Stats(segments []meeting.MergedSegment) map[string]meeting.SpeakerStat {
	stats := make(map[string]meeting.SpeakerStat)
	totalDuration := 0.0

	for _, s := range segments {
		st := stats[s.SpeakerName]
		st.Segments++
		st.TotalDuration += s.DurationSeconds
		st.TotalWords += len(strings.Fields(s.Text))
		st.TotalCharacters += len(s.Text)
		stats[s.SpeakerName] = st
		totalDuration += s.DurationSeconds
	}

	for name, st := range stats {
		if totalDuration > 0 {
			st.PercentageOfTime = st.TotalDuration / totalDuration * 100
		}
		if st.Segments > 0 {
			st.AvgSegmentDuration = st.TotalDuration / float64(st.Segments)
		}
		stats[name] = st
	}
	return stats
}
