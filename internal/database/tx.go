// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/metrics"
)

// ErrConflict marks a write that collided with a concurrent writer.
var ErrConflict = errors.New("concurrent write conflict")

// execer is the subset of *sql.DB and *sql.Tx the writers need.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// withTx runs fn in one transaction. Any error rolls the transaction back
// and comes back as a *PersistenceError.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery(op, "tx", time.Since(start), err)
	}()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return persistErr(op, fmt.Errorf("begin: %w", err))
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Ctx(ctx).Error().Err(rbErr).Str("operation", op).Msg("Rollback failed")
		}
		metrics.DBTransactionRollbacks.WithLabelValues(op).Inc()
		if isUniqueViolation(err) || isTransactionConflict(err) {
			err = fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return persistErr(op, err)
	}

	if err = tx.Commit(); err != nil {
		metrics.DBTransactionRollbacks.WithLabelValues(op).Inc()
		if isTransactionConflict(err) {
			err = fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return persistErr(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// exec runs a statement through the dialect's placeholder rebinding.
func (db *DB) exec(ctx context.Context, e execer, q string, args ...interface{}) (sql.Result, error) {
	return e.ExecContext(ctx, db.dialect.Rebind(q), args...)
}

func (db *DB) query(ctx context.Context, e execer, q string, args ...interface{}) (*sql.Rows, error) {
	return e.QueryContext(ctx, db.dialect.Rebind(q), args...)
}

func (db *DB) queryRow(ctx context.Context, e execer, q string, args ...interface{}) *sql.Row {
	return e.QueryRowContext(ctx, db.dialect.Rebind(q), args...)
}

// readContext bounds an analytics read by the configured query timeout.
func (db *DB) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.cfg == nil || db.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.cfg.QueryTimeout)
}
