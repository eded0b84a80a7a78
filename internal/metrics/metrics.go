// Package metrics provides Prometheus metrics for the churn pipeline: data
// cleaning counters, training durations, and evaluation results. When a
// metrics port is configured the registry is exposed over /metrics for the
// duration of a run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Data cleaning metrics
	RowsLoaded        prometheus.Counter // Total data rows read from the source
	RowsDropped       prometheus.Counter // Rows discarded as unparseable
	BlankTotalsFixed  prometheus.Counter // Zero-tenure rows with blank totals coerced to 0.0
	UnknownCategories prometheus.Counter // Categorical values routed to the unknown bucket

	// Training and evaluation metrics
	ModelsTrained    prometheus.Counter   // Model variants fitted
	TrainingDuration prometheus.Histogram // Per-variant fit duration in seconds
	HeldOutAccuracy  prometheus.Histogram // Held-out accuracy per evaluated variant

	// System metrics
	ErrorsTotal prometheus.Counter // Errors encountered during a run
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RowsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "rows_loaded_total",
			Help: "Total data rows read from the source",
		}),
		RowsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "rows_dropped_total",
			Help: "Rows discarded as unparseable",
		}),
		BlankTotalsFixed: factory.NewCounter(prometheus.CounterOpts{
			Name: "blank_totals_fixed_total",
			Help: "Zero-tenure rows with blank total charges coerced to 0.0",
		}),
		UnknownCategories: factory.NewCounter(prometheus.CounterOpts{
			Name: "unknown_categories_total",
			Help: "Categorical values routed to the unknown bucket",
		}),
		ModelsTrained: factory.NewCounter(prometheus.CounterOpts{
			Name: "models_trained_total",
			Help: "Model variants fitted",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Per-variant fit duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		HeldOutAccuracy: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "held_out_accuracy",
			Help:    "Held-out accuracy per evaluated variant",
			Buckets: []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Errors encountered during a run",
		}),
	}
}

// ObserveCleaning records the loader's cleaning counters in one call.
func (m *Metrics) ObserveCleaning(loaded, dropped, blankTotals int) {
	m.RowsLoaded.Add(float64(loaded))
	m.RowsDropped.Add(float64(dropped))
	m.BlankTotalsFixed.Add(float64(blankTotals))
}
