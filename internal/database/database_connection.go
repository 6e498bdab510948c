// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"runtime"
	"strings"
	"time"
)

// configureConnectionPool sets connection pool parameters.
//   - max_open: configured, else NumCPU()
//   - max_idle: 2
//   - max_lifetime: 1h
//   - max_idle_time: 5m
func (db *DB) configureConnectionPool() {
	maxOpen := runtime.NumCPU()
	if db.cfg != nil && db.cfg.MaxOpenConns > 0 {
		maxOpen = db.cfg.MaxOpenConns
	}
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// isConnectionError checks if an error indicates database connection loss
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"database is closed",
		"invalid connection",
	} {
		if strings.Contains(errMsg, s) {
			return true
		}
	}
	return false
}

// isTransactionConflict checks if an error is a DuckDB write-write conflict
// or a MySQL/PostgreSQL deadlock or serialization failure.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "Deadlock found") ||
		strings.Contains(errStr, "could not serialize access")
}
