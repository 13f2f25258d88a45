package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	before := testutil.ToFloat64(admissions.WithLabelValues("denied", "min_delay"))
	ObserveAdmission(false, "min_delay")
	assert.Equal(t, before+1, testutil.ToFloat64(admissions.WithLabelValues("denied", "min_delay")))

	before = testutil.ToFloat64(destinations.WithLabelValues("succeeded", "crosspost"))
	ObserveDestination("succeeded", "crosspost")
	assert.Equal(t, before+1, testutil.ToFloat64(destinations.WithLabelValues("succeeded", "crosspost")))

	before = testutil.ToFloat64(taskErrors)
	IncTaskErrors()
	assert.Equal(t, before+1, testutil.ToFloat64(taskErrors))

	assert.NotPanics(t, func() {
		ObserveCycle("idle")
		ObserveReplyJob("dead_lettered")
	})
}
