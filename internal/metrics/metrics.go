// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Database query performance
// - API endpoint latency and throughput
// - Report ingestion runs and row outcomes
// - Response cache efficiency
// - Circuit breakers and the upload event bus

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circulation_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation", "table"},
	)

	DBTransactionRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_db_transaction_rollbacks_total",
			Help: "Total number of rolled back write transactions",
		},
		[]string{"operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circulation_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "circulation_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Ingestion Metrics
	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_ingest_runs_total",
			Help: "Total number of report ingestion runs",
		},
		[]string{"file_type", "status"}, // status: "completed", "failed"
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circulation_ingest_duration_seconds",
			Help:    "Duration of report ingestion from parse to commit",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"file_type"},
	)

	IngestRowsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_ingest_rows_imported_total",
			Help: "Total number of report rows imported",
		},
		[]string{"file_type"},
	)

	IngestRowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_ingest_rows_skipped_total",
			Help: "Total number of report rows skipped, by reason",
		},
		[]string{"file_type", "reason"},
	)

	InboxFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_inbox_files_total",
			Help: "Total number of inbox files handled",
		},
		[]string{"outcome"}, // outcome: "completed", "failed", "duplicate", "unknown"
	)

	ArchiveOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_archive_operations_total",
			Help: "Total number of raw report archive operations",
		},
		[]string{"backend", "result"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"backend"},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "circulation_cache_invalidations_total",
			Help: "Total number of cache flushes triggered by new data",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circulation_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_events_published_total",
			Help: "Total number of upload events published",
		},
		[]string{"topic"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_events_handled_total",
			Help: "Total number of upload events handled",
		},
		[]string{"handler", "result"},
	)

	// Auth Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulation_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"mode", "result"}, // result: "success", "failure", "locked"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circulation_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordIngest records the outcome of one ingestion run.
func RecordIngest(fileType string, duration time.Duration, imported int, skipReasons map[string]int, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	IngestRuns.WithLabelValues(fileType, status).Inc()
	IngestDuration.WithLabelValues(fileType).Observe(duration.Seconds())
	if imported > 0 {
		IngestRowsImported.WithLabelValues(fileType).Add(float64(imported))
	}
	for reason, n := range skipReasons {
		IngestRowsSkipped.WithLabelValues(fileType, reason).Add(float64(n))
	}
}

// RecordCacheLookup records a cache hit or miss for a backend
func RecordCacheLookup(backend string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(backend).Inc()
		return
	}
	CacheMisses.WithLabelValues(backend).Inc()
}

// RecordArchive records an archive write
func RecordArchive(backend string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ArchiveOperations.WithLabelValues(backend, result).Inc()
}
