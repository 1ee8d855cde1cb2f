package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Store Metrics (triple store boundary)
	StoreQueriesTotal   *prometheus.CounterVec
	StoreQueryDuration  *prometheus.HistogramVec
	StoreSlowQueries    *prometheus.CounterVec
	StoreAvailable      *prometheus.GaugeVec
	StorePoolLeasesHeld *prometheus.GaugeVec

	// Navigation Metrics (expand)
	ExpansionsTotal     *prometheus.CounterVec
	ExpansionDuration   *prometheus.HistogramVec
	ExpansionChildren   *prometheus.HistogramVec
	LeafExpansionsTotal prometheus.Counter

	// Listing Metrics (root listing)
	ListingsTotal   *prometheus.CounterVec
	ListingDuration *prometheus.HistogramVec
	ListingEntities *prometheus.HistogramVec

	// Session Metrics
	SessionsActive       prometheus.Gauge
	SessionsCreatedTotal prometheus.Counter
	SessionsExpiredTotal prometheus.Counter

	// Export Metrics
	ExportsTotal    *prometheus.CounterVec
	ExportSizeBytes *prometheus.HistogramVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initHTTPMetrics()
	r.initStoreMetrics()
	r.initNavigationMetrics()
	r.initListingMetrics()
	r.initSessionMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
