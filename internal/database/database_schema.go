// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
database_schema.go - Database Schema Management

Tables:
  - daily_snapshots: one row per (snapshot_date, paper_code) with summed counts
  - subscriber_snapshots: one row per (snapshot_date, sub_num, paper_code)
  - renewal_events: append-only renew/expire log
  - churn_daily_summary: per-day renewal and churn rates from ISSUE rows
  - rate_flags: rate catalog with manual legacy/ignored/special flags
  - rate_structure: market rate per (paper_code, subscription_length)
  - raw_uploads: one row per ingestion attempt

The DDL is written in the subset DuckDB, MySQL and PostgreSQL share. Key
columns are VARCHAR so MySQL can index them; the raw_uploads id is the only
column whose definition differs per dialect.

Upserts never assign indexed columns: DuckDB rejects ON CONFLICT updates to
them. business_unit follows paper_code, so it is written on insert only.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range db.getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(q), err)
		}
	}
	return nil
}

func (db *DB) getTableCreationQueries() []string {
	ts := db.dialect.timestampType()

	var uploadID string
	var pre []string
	switch db.dialect {
	case DialectMySQL:
		uploadID = "id BIGINT AUTO_INCREMENT PRIMARY KEY"
	case DialectPostgres:
		uploadID = "id BIGSERIAL PRIMARY KEY"
	default:
		pre = append(pre, `CREATE SEQUENCE IF NOT EXISTS raw_uploads_id_seq START 1`)
		uploadID = "id BIGINT PRIMARY KEY DEFAULT nextval('raw_uploads_id_seq')"
	}

	return append(pre,
		`CREATE TABLE IF NOT EXISTS daily_snapshots (
			snapshot_date DATE NOT NULL,
			week_num INTEGER NOT NULL DEFAULT 0,
			year INTEGER NOT NULL DEFAULT 0,
			paper_code VARCHAR(10) NOT NULL,
			paper_name VARCHAR(100),
			business_unit VARCHAR(50) NOT NULL,
			total_active INTEGER NOT NULL DEFAULT 0,
			deliverable INTEGER NOT NULL DEFAULT 0,
			mail_delivery INTEGER NOT NULL DEFAULT 0,
			carrier_delivery INTEGER NOT NULL DEFAULT 0,
			digital_only INTEGER NOT NULL DEFAULT 0,
			on_vacation INTEGER NOT NULL DEFAULT 0,
			source_filename VARCHAR(255),
			source_date DATE,
			updated_at `+ts+`,
			PRIMARY KEY (snapshot_date, paper_code)
		)`,
		`CREATE TABLE IF NOT EXISTS subscriber_snapshots (
			snapshot_date DATE NOT NULL,
			sub_num VARCHAR(50) NOT NULL,
			paper_code VARCHAR(10) NOT NULL,
			upload_id BIGINT,
			week_num INTEGER NOT NULL DEFAULT 0,
			year INTEGER NOT NULL DEFAULT 0,
			paper_name VARCHAR(100),
			business_unit VARCHAR(50) NOT NULL,
			name VARCHAR(255),
			route VARCHAR(50),
			rate_name VARCHAR(255),
			subscription_length VARCHAR(20),
			delivery_type VARCHAR(20),
			payment_status VARCHAR(50),
			begin_date DATE,
			paid_thru DATE,
			daily_rate DOUBLE PRECISION,
			last_payment_amount DOUBLE PRECISION,
			on_vacation BOOLEAN NOT NULL DEFAULT FALSE,
			vacation_start DATE,
			vacation_end DATE,
			vacation_weeks DOUBLE PRECISION,
			address VARCHAR(255),
			city_state_postal VARCHAR(255),
			phone VARCHAR(50),
			email VARCHAR(255),
			abc VARCHAR(20),
			issue_code VARCHAR(20),
			login_id VARCHAR(100),
			last_login `+ts+`,
			source_filename VARCHAR(255),
			source_date DATE,
			updated_at `+ts+`,
			PRIMARY KEY (snapshot_date, sub_num, paper_code)
		)`,
		`CREATE TABLE IF NOT EXISTS renewal_events (
			event_date DATE NOT NULL,
			sub_num VARCHAR(50) NOT NULL,
			paper_code VARCHAR(10) NOT NULL,
			status VARCHAR(10) NOT NULL,
			subscription_type VARCHAR(20) NOT NULL,
			source_filename VARCHAR(255),
			imported_at `+ts+`,
			PRIMARY KEY (event_date, sub_num, paper_code, status)
		)`,
		`CREATE TABLE IF NOT EXISTS churn_daily_summary (
			snapshot_date DATE NOT NULL,
			paper_code VARCHAR(10) NOT NULL,
			subscription_type VARCHAR(20) NOT NULL,
			expiring_count INTEGER NOT NULL DEFAULT 0,
			renewed_count INTEGER NOT NULL DEFAULT 0,
			stopped_count INTEGER NOT NULL DEFAULT 0,
			renewal_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			churn_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at `+ts+`,
			PRIMARY KEY (snapshot_date, paper_code, subscription_type)
		)`,
		`CREATE TABLE IF NOT EXISTS rate_flags (
			paper_code VARCHAR(10) NOT NULL,
			zone VARCHAR(50) NOT NULL,
			rate_name VARCHAR(255) NOT NULL,
			subscription_length VARCHAR(20) NOT NULL,
			rate_amount DOUBLE PRECISION NOT NULL,
			is_legacy BOOLEAN NOT NULL DEFAULT FALSE,
			is_ignored BOOLEAN NOT NULL DEFAULT FALSE,
			is_special BOOLEAN NOT NULL DEFAULT FALSE,
			auto_detected_legacy BOOLEAN NOT NULL DEFAULT FALSE,
			rate_id VARCHAR(50),
			length DOUBLE PRECISION,
			length_type VARCHAR(5),
			effective_date DATE,
			annualized_rate DOUBLE PRECISION,
			updated_at `+ts+`,
			PRIMARY KEY (paper_code, zone, rate_name, subscription_length, rate_amount)
		)`,
		`CREATE TABLE IF NOT EXISTS rate_structure (
			paper_code VARCHAR(10) NOT NULL,
			subscription_length VARCHAR(20) NOT NULL,
			market_rate DOUBLE PRECISION NOT NULL,
			rate_name VARCHAR(255),
			annualized_rate DOUBLE PRECISION,
			updated_at `+ts+`,
			PRIMARY KEY (paper_code, subscription_length)
		)`,
		`CREATE TABLE IF NOT EXISTS raw_uploads (
			`+uploadID+`,
			filename VARCHAR(255) NOT NULL,
			file_type VARCHAR(20) NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			file_hash VARCHAR(64) NOT NULL,
			snapshot_date DATE,
			row_count INTEGER NOT NULL DEFAULT 0,
			subscriber_count INTEGER NOT NULL DEFAULT 0,
			processing_status VARCHAR(20) NOT NULL,
			processing_errors TEXT,
			uploaded_by VARCHAR(100),
			ip_address VARCHAR(45),
			user_agent VARCHAR(255),
			archive_key VARCHAR(512),
			uploaded_at `+ts+` NOT NULL,
			processed_at `+ts+`
		)`,
	)
}

// indexDefinitions lists indexes for the common read patterns:
// unit/date rollups, paper history and upload hash lookups.
var indexDefinitions = []string{
	`CREATE INDEX IF NOT EXISTS idx_daily_unit_date ON daily_snapshots(business_unit, snapshot_date)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_paper_date ON daily_snapshots(paper_code, snapshot_date)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriber_unit_date ON subscriber_snapshots(business_unit, snapshot_date)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriber_sub_paper ON subscriber_snapshots(sub_num, paper_code)`,
	`CREATE INDEX IF NOT EXISTS idx_renewal_paper_date ON renewal_events(paper_code, event_date)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_uploads_hash ON raw_uploads(file_hash)`,
}

// createIndexes creates indexes. MySQL has no CREATE INDEX IF NOT EXISTS,
// so the clause is dropped there and "Duplicate key name" is ignored.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range indexDefinitions {
		if db.dialect == DialectMySQL {
			q = strings.Replace(q, "IF NOT EXISTS ", "", 1)
		}
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			if isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("failed to create index %q: %w", q, err)
		}
	}
	return nil
}

func firstLine(q string) string {
	q = strings.TrimSpace(q)
	if i := strings.IndexByte(q, '\n'); i >= 0 {
		return strings.TrimSpace(q[:i])
	}
	return q
}
