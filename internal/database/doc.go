// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

// Package database is the circulation store: the snapshot, renewal, rate
// and upload tables and the reads behind the analytics API.
//
// # Dialects
//
// DuckDB is the default and runs embedded. MySQL (go-sql-driver/mysql) and
// PostgreSQL (pgx through database/sql) are selected with DB_DRIVER. The
// DDL keeps to the subset the three share; writes go through upsertSQL,
// which emits ON CONFLICT or ON DUPLICATE KEY UPDATE, and every statement
// is rebound so PostgreSQL receives $n placeholders.
//
// # Files
//
//   - database.go: lifecycle, DSN construction and value helpers
//   - database_schema.go, migrations.go: tables, indexes, versioned migrations
//   - dialect.go: placeholder rebinding and INSERT/upsert builders
//   - tx.go: transaction wrapper with rollback metrics
//   - snapshots.go, vacations.go, renewals.go, rates.go, uploads.go: writers
//   - analytics_store.go, subscribers.go, revenue.go: analytics reads
//
// # Dates
//
// Every DATE value is bound and returned as a time.Time at UTC midnight.
// Drivers disagree on DATE string formats; a zoned midnight binds the same
// calendar day everywhere.
//
// # Transactions
//
// Each write operation runs in one transaction. Failures roll back and
// surface as *PersistenceError; a write that lost a race with another
// writer also matches ErrConflict, and a dropped connection matches
// ErrUnavailable.
//
// # Excluded papers
//
// Paper codes passed to New as excluded never appear in analytics reads.
// Writers store them like any other paper.
package database
