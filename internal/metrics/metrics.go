package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publisher metrics
var (
	// PublishAttemptsTotal counts per-platform publish attempts by outcome (success, failure).
	PublishAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_attempts_total",
			Help: "Per-platform publish attempts by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "publish_duration_seconds",
			Help:    "Duration of a single platform publish call in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"platform"},
	)

	// PostsProcessedTotal counts posts leaving the scheduled state by final status.
	PostsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_processed_total",
			Help: "Posts processed by the publisher by resulting status",
		},
		[]string{"status"},
	)

	SchedulerTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_ticks_total",
			Help: "Scheduler ticks by result (ok, fetch_error)",
		},
		[]string{"result"},
	)

	SchedulerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_tick_duration_seconds",
			Help:    "Duration of a scheduler tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// OAuth metrics
var (
	OAuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_requests_total",
			Help: "Provider OAuth calls by platform, operation and outcome",
		},
		[]string{"platform", "operation", "outcome"},
	)

	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_refresh_total",
			Help: "Background token refreshes by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)
)

// Circuit breaker metrics
var (
	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)

	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)
)

// Outcome returns the label value for err.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
