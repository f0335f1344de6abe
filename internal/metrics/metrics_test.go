package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		PublishAttemptsTotal,
		PublishDuration,
		PostsProcessedTotal,
		SchedulerTicksTotal,
		SchedulerTickDuration,
		OAuthRequestsTotal,
		TokenRefreshTotal,
		CircuitBreakerState,
		CircuitBreakerStateChanges,
	}

	for _, c := range collectors {
		err := prometheus.Register(c)
		var already prometheus.AlreadyRegisteredError
		assert.True(t, errors.As(err, &already), "collector should already be registered")
	}
}

func TestPublishAttemptsTotal_Increments(t *testing.T) {
	c := PublishAttemptsTotal.WithLabelValues("twitter", "success")
	before := testutil.ToFloat64(c)

	c.Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "failure", Outcome(errors.New("x")))
}
