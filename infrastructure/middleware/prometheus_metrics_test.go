package middleware

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelane/evalengine/internal/domain"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(reg)

	pm.IncSubmissionsScored()
	pm.IncSubmissionsScored()
	pm.IncConsensus(domain.ConsensusAutomatic)
	pm.IncConsensus(domain.ConsensusTrimmedMean)
	pm.IncConsensus(domain.ConsensusTrimmedMean)
	pm.IncDisqualified(3)
	pm.ObserveFinalScore(77)
	pm.RecordStageLatency("aggregate", 25*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(pm.submissionsScored), 1e-9)
	assert.InDelta(t, 3, testutil.ToFloat64(pm.disqualifications), 1e-9)
	assert.InDelta(t, 1,
		testutil.ToFloat64(pm.consensusResolved.WithLabelValues("AUTOMATIC")), 1e-9)
	assert.InDelta(t, 2,
		testutil.ToFloat64(pm.consensusResolved.WithLabelValues("TRIMMED_MEAN")), 1e-9)

	expected := strings.NewReader(`
# HELP evalengine_disqualifications_total Total number of submissions disqualified for mandatory-criteria failures.
# TYPE evalengine_disqualifications_total counter
evalengine_disqualifications_total 3
`)
	require.NoError(t, testutil.GatherAndCompare(reg, expected, "evalengine_disqualifications_total"))
}

func TestPrometheusMetricsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { NewPrometheusMetrics(reg) })
	assert.Panics(t, func() { NewPrometheusMetrics(reg) }, "duplicate registration should panic")
}
