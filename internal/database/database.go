// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/circulation/internal/config"
)

// DB wraps the SQL connection and provides the circulation store.
type DB struct {
	conn     *sql.DB
	dialect  Dialect
	cfg      *config.DatabaseConfig
	excluded []string
	now      func() time.Time
}

// New opens the configured database and brings its schema up to date.
// excluded lists paper codes hidden from every analytics read.
func New(cfg *config.DatabaseConfig, excluded []string) (*DB, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := dataSourceName(dialect, cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := newDB(conn, dialect, cfg, excluded)
	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// NewWithConn wraps an open connection without touching the schema.
// Tests use it with go-sqlmock.
func NewWithConn(conn *sql.DB, dialect Dialect, excluded []string) *DB {
	return newDB(conn, dialect, nil, excluded)
}

func newDB(conn *sql.DB, dialect Dialect, cfg *config.DatabaseConfig, excluded []string) *DB {
	ex := make([]string, 0, len(excluded))
	for _, code := range excluded {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			ex = append(ex, code)
		}
	}
	return &DB{
		conn:     conn,
		dialect:  dialect,
		cfg:      cfg,
		excluded: ex,
		now:      time.Now,
	}
}

// dataSourceName builds the driver connection string.
func dataSourceName(dialect Dialect, cfg *config.DatabaseConfig) (string, error) {
	switch dialect {
	case DialectMySQL:
		mc, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.MultiStatements = false
		return mc.FormatDSN(), nil
	case DialectPostgres:
		return cfg.DSN, nil
	}

	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	// Create the parent directory so DuckDB can create the file.
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	dsn := fmt.Sprintf("%s?access_mode=read_write&threads=%d", cfg.Path, numThreads)
	if cfg.MaxMemory != "" {
		dsn += "&max_memory=" + cfg.MaxMemory
	}
	return dsn, nil
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Dialect reports the connected SQL flavour.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		if isConnectionError(err) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// initialize creates tables and indexes, then applies pending migrations.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if err := db.createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	if err := db.runVersionedMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// dateOnly truncates t to its calendar day at UTC midnight, the form every
// DATE column is written and compared in.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nullDate converts an optional day for a DATE column.
func nullDate(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return dateOnly(*t)
}

// nullable dereferences p, or returns nil for a NULL.
func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := dateOnly(nt.Time)
	return &t
}

func instantPtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}
