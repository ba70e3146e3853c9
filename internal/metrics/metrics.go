// Package metrics holds the Prometheus counters the API exposes on /metrics.
// Register adds them to the default registry once at startup.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CacheLookups counts collection cache reads, labelled hit or miss.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portfolio_cache_lookups_total", Help: "Collection cache lookups by result"},
		[]string{"collection", "result"},
	)
	// CacheInvalidations counts writes that dropped a cached collection.
	CacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portfolio_cache_invalidations_total", Help: "Collection cache invalidations"},
		[]string{"collection"},
	)
	// LoginAttempts counts admin logins by outcome: success, failure,
	// missing_password or rate_limited.
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portfolio_login_attempts_total", Help: "Admin login attempts by outcome"},
		[]string{"outcome"},
	)
	// RateLimited counts requests turned away, labelled by which limiter did it.
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portfolio_rate_limited_total", Help: "Requests rejected by a rate limiter"},
		[]string{"limiter"},
	)
	// HTTPRequests counts every request the API answered.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portfolio_http_requests_total", Help: "HTTP requests by method and status"},
		[]string{"method", "status"},
	)
	// Backups counts scheduled and manual SQLite snapshots.
	Backups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portfolio_backups_total", Help: "Database snapshots by outcome"},
		[]string{"outcome"},
	)
)

// Register adds the vectors to the default registry. It panics if called twice.
func Register() {
	prometheus.MustRegister(CacheLookups, CacheInvalidations, LoginAttempts, RateLimited, HTTPRequests, Backups)
}
