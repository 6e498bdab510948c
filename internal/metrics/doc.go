// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package metrics provides Prometheus metrics collection and export.

Metrics are registered on the default registry with promauto and exposed at
/metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Database:
  - circulation_db_query_duration_seconds{operation, table}
  - circulation_db_query_errors_total{operation, table}
  - circulation_db_transaction_rollbacks_total{operation}

API:
  - circulation_api_requests_total{method, endpoint, status_code}
  - circulation_api_request_duration_seconds{method, endpoint}
  - circulation_api_active_requests
  - circulation_api_rate_limit_hits_total{endpoint}

Ingestion:
  - circulation_ingest_runs_total{file_type, status}
  - circulation_ingest_duration_seconds{file_type}
  - circulation_ingest_rows_imported_total{file_type}
  - circulation_ingest_rows_skipped_total{file_type, reason}
  - circulation_inbox_files_total{outcome}
  - circulation_archive_operations_total{backend, result}

Cache, circuit breakers and events:
  - circulation_cache_hits_total{backend}, circulation_cache_misses_total{backend}
  - circulation_cache_invalidations_total
  - circulation_circuit_breaker_state{name}
  - circulation_events_published_total{topic}
  - circulation_events_handled_total{handler, result}
*/
package metrics
