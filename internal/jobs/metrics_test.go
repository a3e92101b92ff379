package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("sessions:prune").End(nil))
	boom := errors.New("boom")
	assert.Same(t, boom, m.Track("sessions:prune").End(boom))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("sessions:prune", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("sessions:prune", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failures.WithLabelValues("sessions:prune")))
}

func TestAddPrunedIgnoresNonPositive(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddPruned(0)
	m.AddPruned(-2)
	m.AddPruned(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.pruned))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.AddPruned(1)
		_ = nilMetrics.Track("x").End(nil)
	})
}
