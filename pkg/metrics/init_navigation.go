package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initNavigationMetrics() {
	r.ExpansionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sclgraph_expansions_total",
			Help: "Total number of node expansions by parent kind and outcome",
		},
		[]string{"kind", "status"},
	)

	r.ExpansionDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sclgraph_expansion_duration_seconds",
			Help:    "Node expansion latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	r.ExpansionChildren = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sclgraph_expansion_children",
			Help:    "Children returned per successful expansion",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"kind"},
	)

	r.LeafExpansionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "sclgraph_leaf_expansions_total",
			Help: "Expansions of leaf kinds answered without a store query",
		},
	)
}
