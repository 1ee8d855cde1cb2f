package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initListingMetrics() {
	r.ListingsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sclgraph_listings_total",
			Help: "Total number of root listings by grouping key and outcome",
		},
		[]string{"group_by", "status"},
	)

	r.ListingDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sclgraph_listing_duration_seconds",
			Help:    "Root listing latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"group_by"},
	)

	r.ListingEntities = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sclgraph_listing_entities",
			Help:    "Entities returned per successful listing",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"group_by"},
	)
}
