// Package metrics exposes Prometheus instrumentation for the automation engine.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors used by the automation engine.
type Metrics struct {
	RunsTotal        prometheus.Counter
	RunDuration      prometheus.Histogram
	ItemsProcessed   prometheus.Counter
	OutcomesTotal    *prometheus.CounterVec
	AdapterErrors    *prometheus.CounterVec
	ClassifierErrors prometheus.Counter
}

// New registers and returns the engine collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in production; a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "automation_runs_total",
			Help: "Number of automation runs started.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "automation_run_duration_seconds",
			Help:    "Wall-clock duration of automation runs.",
			Buckets: prometheus.DefBuckets,
		}),
		ItemsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "automation_items_processed_total",
			Help: "Number of work items processed across all runs.",
		}),
		OutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "automation_outcomes_total",
			Help: "Per-item outcomes partitioned by outcome type and source.",
		}, []string{"outcome", "source"}),
		AdapterErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "automation_adapter_errors_total",
			Help: "Source adapter call failures partitioned by source and operation.",
		}, []string{"source", "operation"}),
		ClassifierErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "automation_classifier_errors_total",
			Help: "AI classifier failures that degraded to keyword triage.",
		}),
	}
}
