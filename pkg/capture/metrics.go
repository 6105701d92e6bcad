package capture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job Orchestrator counters, in the ollama-proxy idiom of package-level
// promauto registrations rather than an explicit registry object.
var (
	jobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetscribe_capture_jobs_started_total",
		Help: "Meeting capture jobs started.",
	})

	jobsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetscribe_capture_jobs_succeeded_total",
		Help: "Meeting capture jobs that persisted a MeetingRecord.",
	})

	jobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetscribe_capture_jobs_failed_total",
		Help: "Meeting capture jobs that aborted, by error kind.",
	}, []string{"kind"})
)

func recordFailure(kind string) {
	jobsFailed.WithLabelValues(kind).Inc()
}
