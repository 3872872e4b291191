// Package telemetry exposes the Prometheus instrumentation for the
// analysis pipeline and data providers.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the pipeline emits. One instance is
// shared across the process and registered on a single registry.
type Metrics struct {
	Registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	ProviderFailures *prometheus.CounterVec
	SimulationPaths  prometheus.Counter
	SnapshotWrites   *prometheus.CounterVec
}

// New creates and registers the collector set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "garpscan",
			Name:      "analyses_total",
			Help:      "Completed analyses by terminal status.",
		}, []string{"status"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "garpscan",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of a full single-symbol analysis.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		ProviderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "garpscan",
			Name:      "provider_failures_total",
			Help:      "Upstream data provider call failures by provider name.",
		}, []string{"provider"}),
		SimulationPaths: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "garpscan",
			Name:      "simulation_paths_total",
			Help:      "Bootstrap and Monte Carlo paths simulated.",
		}),
		SnapshotWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "garpscan",
			Name:      "snapshot_writes_total",
			Help:      "Snapshot store writes by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveAnalysis records one completed analysis.
func (m *Metrics) ObserveAnalysis(status string, seconds float64) {
	m.AnalysesTotal.WithLabelValues(status).Inc()
	m.AnalysisDuration.Observe(seconds)
}
