// Package metrics holds the Prometheus collectors of the backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter for started assessment sessions
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_assessment_sessions_started_total",
			Help: "Total number of started assessment sessions",
		},
		[]string{"assessment_id"},
	)

	// Gauge for sessions held in memory
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lingua_assessment_sessions_active",
			Help: "Current number of in-memory assessment sessions",
		},
	)

	// Counter for attempts fully reported to the tracker
	Completions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_assessment_completions_total",
			Help: "Total number of assessment attempts reported to the progress tracker",
		},
		[]string{"result"}, // passed, failed
	)

	// Counter for completion runs that stopped at a step
	CompletionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_assessment_completion_failures_total",
			Help: "Total number of completion runs that failed, by step",
		},
		[]string{"step"},
	)

	// Histogram for completion run duration
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingua_assessment_completion_duration_seconds",
			Help:    "Time spent reporting an attempt to the progress tracker",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"}, // success, failure
	)

	// Counter for login attempts
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingua_auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"}, // success, failure
	)
)

// ResultLabel maps a pass flag to the Completions label.
func ResultLabel(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
