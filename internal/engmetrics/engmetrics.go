// Package engmetrics exposes the engine's process-lifetime counters on
// a private Prometheus registry, so an embedding host can scrape them
// without the engine touching the global default registry.
package engmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's instrumentation.
type Metrics struct {
	Registry *prometheus.Registry

	// ProcessChangeDuration observes wall-clock seconds per ProcessChange.
	ProcessChangeDuration prometheus.Histogram
	// NodesTotal and EdgesTotal track the store size after each change.
	NodesTotal prometheus.Gauge
	EdgesTotal prometheus.Gauge
	// PropagatorDropped counts files dropped past the fan-out budget.
	PropagatorDropped prometheus.Counter
}

// New builds the metric set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		ProcessChangeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "codegraph_process_change_duration_seconds",
			Help:    "Wall-clock duration of one ProcessChange call.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		NodesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codegraph_nodes_total",
			Help: "Nodes currently in the graph store.",
		}),
		EdgesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codegraph_edges_total",
			Help: "Edges currently in the graph store.",
		}),
		PropagatorDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_propagator_dropped_total",
			Help: "Dependent files dropped past the propagator fan-out budget.",
		}),
	}
}
