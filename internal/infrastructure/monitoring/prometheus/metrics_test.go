package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineMetrics_RegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)
	require.NotNil(t, m)

	m.RunsTotal.WithLabelValues(OutcomeOK).Inc()
	m.RowsIngestedTotal.Add(42)
	m.RowsDroppedTotal.WithLabelValues("malformed_name").Inc()
	m.ModelFitsTotal.WithLabelValues("L1", FitAccepted).Inc()
	m.ModelFitsTotal.WithLabelValues("L3", FitInfeasible).Inc()
	m.OutlierReasonsTotal.WithLabelValues("std_residual").Add(3)
	m.CompoundsClassified.WithLabelValues("valid").Add(10)
	m.GroupsUnclassifiable.Inc()
	m.ConsolidationsTotal.Inc()
	m.WarningsTotal.WithLabelValues("autocorrelation").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.RowsIngestedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelFitsTotal.WithLabelValues("L1", FitAccepted)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OutlierReasonsTotal.WithLabelValues("std_residual")))
}

func TestNewPipelineMetrics_IsolatedRegistries(t *testing.T) {
	// Two registries must not collide; a shared default registry would panic
	// on duplicate registration here.
	a := NewPipelineMetrics(prometheus.NewRegistry())
	b := NewPipelineMetrics(prometheus.NewRegistry())

	a.RunsTotal.WithLabelValues(OutcomeFailed).Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RunsTotal.WithLabelValues(OutcomeFailed)))
}

func TestNewNopMetrics(t *testing.T) {
	m := NewNopMetrics()
	m.RunDuration.Observe(0.2)
	m.GroupsUnclassifiable.Inc()
}
