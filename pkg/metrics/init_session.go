package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSessionMetrics() {
	r.SessionsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "sclgraph_sessions_active",
			Help: "Server-hosted tree sessions currently alive",
		},
	)

	r.SessionsCreatedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "sclgraph_sessions_created_total",
			Help: "Total number of sessions created",
		},
	)

	r.SessionsExpiredTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "sclgraph_sessions_expired_total",
			Help: "Sessions reaped after exceeding the idle TTL",
		},
	)

	r.ExportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "sclgraph_exports_total",
			Help: "Snapshot exports by sink and outcome",
		},
		[]string{"sink", "status"},
	)

	r.ExportSizeBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sclgraph_export_size_bytes",
			Help:    "Compressed snapshot size in bytes",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"sink"},
	)
}
