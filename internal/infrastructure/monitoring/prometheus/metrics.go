// Package prometheus defines the GlycoTrace pipeline metric set.  The metrics
// are registered against an injected Registerer so tests and concurrent runs
// can use isolated registries.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values for run outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metric label values for model fit outcomes.
const (
	FitAccepted   = "accepted"
	FitRejected   = "rejected"
	FitInfeasible = "infeasible"
	FitNumerical  = "numerical_error"
)

// DefaultRunDurationBuckets covers batch analysis runs from milliseconds to
// minutes.
var DefaultRunDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300}

// PipelineMetrics holds every metric emitted by the analysis pipeline.
type PipelineMetrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	RowsIngestedTotal    prometheus.Counter
	RowsDroppedTotal     *prometheus.CounterVec
	ModelFitsTotal       *prometheus.CounterVec
	GroupsUnclassifiable prometheus.Counter
	OutlierReasonsTotal  *prometheus.CounterVec
	CompoundsClassified  *prometheus.CounterVec
	ConsolidationsTotal  prometheus.Counter
	WarningsTotal        *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metric set on reg and returns it.
// Passing prometheus.NewRegistry() yields an isolated set for tests.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)

	return &PipelineMetrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glycotrace",
			Name:      "runs_total",
			Help:      "Completed analysis runs by outcome.",
		}, []string{"outcome"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "glycotrace",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of one full analysis run.",
			Buckets:   DefaultRunDurationBuckets,
		}),

		RowsIngestedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "glycotrace",
			Name:      "rows_ingested_total",
			Help:      "Input rows successfully parsed into compound records.",
		}),

		RowsDroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glycotrace",
			Name:      "rows_dropped_total",
			Help:      "Input rows dropped during ingestion, by cause.",
		}, []string{"kind"}),

		ModelFitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glycotrace",
			Name:      "model_fits_total",
			Help:      "Regression fit attempts by cascade level and outcome.",
		}, []string{"level", "outcome"}),

		GroupsUnclassifiable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "glycotrace",
			Name:      "groups_unclassifiable_total",
			Help:      "Prefix groups that exhausted the cascade without an accepted model.",
		}),

		OutlierReasonsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glycotrace",
			Name:      "outlier_reasons_total",
			Help:      "Outlier detections by triggering method.",
		}, []string{"kind"}),

		CompoundsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glycotrace",
			Name:      "compounds_classified_total",
			Help:      "Classified compounds by verdict (valid|outlier).",
		}, []string{"verdict"}),

		ConsolidationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "glycotrace",
			Name:      "consolidation_clusters_total",
			Help:      "Multi-member fragmentation clusters consolidated.",
		}),

		WarningsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glycotrace",
			Name:      "warnings_total",
			Help:      "Advisory warnings attached to run results, by kind.",
		}, []string{"kind"}),
	}
}

// NewNopMetrics returns a metric set registered on a throwaway registry.
// Useful for tests and library callers that do not scrape metrics.
func NewNopMetrics() *PipelineMetrics {
	return NewPipelineMetrics(prometheus.NewRegistry())
}
