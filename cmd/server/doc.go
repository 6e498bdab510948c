// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package main is the entry point for the Circulation server.

The server ingests the daily CSV exports of the circulation system
(subscriber, vacation, renewal and rate reports), stores them in DuckDB,
MySQL or PostgreSQL and serves dashboard analytics over a JSON API.

# Process Layout

	circulation
	├── ingest-layer
	│   └── inbox poller (INBOX_ENABLED=true)
	├── messaging-layer
	│   └── upload event router (EVENTS_ENABLED=true)
	└── api-layer
	    └── HTTP server

Startup order:

 1. Configuration (koanf: defaults, config.yaml, environment)
 2. Logging (zerolog)
 3. Database and schema migrations
 4. Response cache (memory or Redis)
 5. Upload event bus with the cache invalidator and notification log
 6. Raw file archive (local directory or S3)
 7. Ingestion and analytics services
 8. Authentication (none, basic or jwt)
 9. HTTP router
 10. Supervisor tree

# Example

	export DB_DRIVER=duckdb
	export DUCKDB_PATH=/data/circulation.duckdb
	export JWT_SECRET=$(openssl rand -base64 48)
	export ADMIN_USERNAME=circulation
	export ADMIN_PASSWORD='a long password'
	export INBOX_ENABLED=true
	export INBOX_DIR=/data/inbox
	./circulation

SIGINT and SIGTERM cancel the supervisor context. The HTTP server drains
in-flight requests within SHUTDOWN_TIMEOUT, then the event bus,
the inbox ledger and the database are closed in that order.
*/
package main
