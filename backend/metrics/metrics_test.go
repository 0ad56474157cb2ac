package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "passed", ResultLabel(true))
	assert.Equal(t, "failed", ResultLabel(false))
}

func TestCountersAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(CompletionFailures.WithLabelValues("grant_xp"))
	CompletionFailures.WithLabelValues("grant_xp").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CompletionFailures.WithLabelValues("grant_xp")))

	SessionsActive.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(SessionsActive))
}
