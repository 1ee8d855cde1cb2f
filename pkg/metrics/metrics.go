package metrics

import (
	"time"
)

// slowQueryThreshold marks store queries worth counting separately.
const slowQueryThreshold = time.Second

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordStoreQuery records one round trip to the triple store
func (r *Registry) RecordStoreQuery(backend, status string, duration time.Duration) {
	r.StoreQueriesTotal.WithLabelValues(backend, status).Inc()
	r.StoreQueryDuration.WithLabelValues(backend).Observe(duration.Seconds())

	if duration > slowQueryThreshold {
		r.StoreSlowQueries.WithLabelValues(backend).Inc()
	}
}

// SetStoreAvailable publishes the last known availability of a backend
func (r *Registry) SetStoreAvailable(backend string, available bool) {
	if available {
		r.StoreAvailable.WithLabelValues(backend).Set(1)
	} else {
		r.StoreAvailable.WithLabelValues(backend).Set(0)
	}
}

// PoolLeaseAcquired tracks a query lease taken from a backend pool
func (r *Registry) PoolLeaseAcquired(backend string) {
	r.StorePoolLeasesHeld.WithLabelValues(backend).Inc()
}

// PoolLeaseReleased tracks a query lease returned to a backend pool
func (r *Registry) PoolLeaseReleased(backend string) {
	r.StorePoolLeasesHeld.WithLabelValues(backend).Dec()
}

// RecordExpansion records one expand call with its outcome
func (r *Registry) RecordExpansion(kind, status string, duration time.Duration, children int) {
	r.ExpansionsTotal.WithLabelValues(kind, status).Inc()
	r.ExpansionDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if status == "ok" {
		r.ExpansionChildren.WithLabelValues(kind).Observe(float64(children))
	}
}

// RecordLeafExpansion counts expansions answered without a store query
func (r *Registry) RecordLeafExpansion() {
	r.LeafExpansionsTotal.Inc()
}

// RecordListing records one root listing call with its outcome
func (r *Registry) RecordListing(groupBy, status string, duration time.Duration, entities int) {
	r.ListingsTotal.WithLabelValues(groupBy, status).Inc()
	r.ListingDuration.WithLabelValues(groupBy).Observe(duration.Seconds())
	if status == "ok" {
		r.ListingEntities.WithLabelValues(groupBy).Observe(float64(entities))
	}
}

// SessionOpened tracks a newly created session
func (r *Registry) SessionOpened() {
	r.SessionsCreatedTotal.Inc()
	r.SessionsActive.Inc()
}

// SessionClosed tracks an explicitly deleted session
func (r *Registry) SessionClosed() {
	r.SessionsActive.Dec()
}

// SessionExpired tracks a session reaped by the idle TTL janitor
func (r *Registry) SessionExpired() {
	r.SessionsExpiredTotal.Inc()
	r.SessionsActive.Dec()
}

// RecordExport records a snapshot export attempt
func (r *Registry) RecordExport(sink, status string, sizeBytes int) {
	r.ExportsTotal.WithLabelValues(sink, status).Inc()
	if status == "ok" {
		r.ExportSizeBytes.WithLabelValues(sink).Observe(float64(sizeBytes))
	}
}
