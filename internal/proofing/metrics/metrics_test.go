package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("records against a private registry", func(t *testing.T) {
		m := New(prometheus.NewRegistry())

		m.IncrementJob("succeeded")
		m.IncrementJob("succeeded")
		m.IncrementOutcome(false)
		m.IncrementCostFailure("aamva")
		m.IncrementShadowEnqueued()
		m.ObserveStage("state_id", "passed", 200*time.Millisecond)

		assert.InDelta(t, 2, testutil.ToFloat64(m.JobOutcome.WithLabelValues("succeeded")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.ProofingOutcome.WithLabelValues("false")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.CostRecordFailures.WithLabelValues("aamva")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.ShadowEnqueued), 0)
	})

	t.Run("nil metrics are a no-op", func(t *testing.T) {
		var m *Metrics
		assert.NotPanics(t, func() {
			m.IncrementJob("failed")
			m.ObserveJobDuration(time.Second)
			m.ObserveStage("resolution", "failed", time.Second)
			m.IncrementOutcome(true)
			m.IncrementCostFailure("aamva")
			m.IncrementShadowEnqueued()
		})
	})
}
