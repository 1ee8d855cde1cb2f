package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sclgraph_store_queries_total",
			Help: "Total number of triple store queries",
		},
		[]string{"backend", "status"},
	)

	r.StoreQueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sclgraph_store_query_duration_seconds",
			Help:    "Triple store query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	r.StoreSlowQueries = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sclgraph_store_slow_queries_total",
			Help: "Queries slower than the slow query threshold",
		},
		[]string{"backend"},
	)

	r.StoreAvailable = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sclgraph_store_available",
			Help: "Whether the backend answered its last ping (1) or not (0)",
		},
		[]string{"backend"},
	)

	r.StorePoolLeasesHeld = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sclgraph_store_pool_leases_held",
			Help: "Connection pool leases currently held",
		},
		[]string{"backend"},
	)
}
