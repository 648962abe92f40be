// Package middleware provides cross-cutting concerns for the scoring
// engine: Prometheus metrics and OpenTelemetry tracing around pipeline
// stages.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/procurelane/evalengine/internal/domain"
	"github.com/procurelane/evalengine/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of scoring throughput,
// consensus behavior, disqualification rates, and score distributions.
type PrometheusMetrics struct {
	stageLatency       *prometheus.HistogramVec
	submissionsScored  prometheus.Counter
	consensusResolved  *prometheus.CounterVec
	disqualifications  prometheus.Counter
	finalScores        prometheus.Histogram
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all required metrics with the given registerer. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evalengine_stage_duration_seconds",
				Help:    "Execution time of scoring pipeline stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		submissionsScored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "evalengine_submissions_scored_total",
				Help: "Total number of submissions scored.",
			},
		),
		consensusResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalengine_consensus_resolutions_total",
				Help: "Total number of consensus resolutions by method, including the automatic fast path.",
			},
			[]string{"method"},
		),
		disqualifications: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "evalengine_disqualifications_total",
				Help: "Total number of submissions disqualified for mandatory-criteria failures.",
			},
		),
		finalScores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "evalengine_final_score",
				Help:    "Distribution of final submission scores on the 0-100 scale.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
	}
}

// RecordStageLatency implements the MetricsCollector interface by recording
// stage execution time in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordStageLatency(stage string, duration time.Duration) {
	pm.stageLatency.WithLabelValues(stage).Observe(duration.Seconds())
}

// IncSubmissionsScored implements the MetricsCollector interface.
func (pm *PrometheusMetrics) IncSubmissionsScored() {
	pm.submissionsScored.Inc()
}

// IncConsensus implements the MetricsCollector interface, labeling the
// count by resolution method.
func (pm *PrometheusMetrics) IncConsensus(method domain.ConsensusMethod) {
	pm.consensusResolved.WithLabelValues(string(method)).Inc()
}

// IncDisqualified implements the MetricsCollector interface.
func (pm *PrometheusMetrics) IncDisqualified(count int) {
	pm.disqualifications.Add(float64(count))
}

// ObserveFinalScore implements the MetricsCollector interface.
func (pm *PrometheusMetrics) ObserveFinalScore(score float64) {
	pm.finalScores.Observe(score)
}
