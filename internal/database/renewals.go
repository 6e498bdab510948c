// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

var renewalColumns = []string{
	"event_date", "sub_num", "paper_code", "status", "subscription_type", "source_filename", "imported_at",
}

var churnColumns = []string{
	"snapshot_date", "paper_code", "subscription_type", "expiring_count", "renewed_count",
	"stopped_count", "renewal_rate", "churn_rate", "updated_at",
}

var churnKeys = []string{"snapshot_date", "paper_code", "subscription_type"}

func renewalKey(date time.Time, sub, paper, status string) string {
	return dateOnly(date).Format("2006-01-02") + "|" + sub + "|" + paper + "|" + status
}

// InsertRenewals appends new renewal events and upserts churn summaries in
// one transaction. Events already stored under the same
// (event_date, sub_num, paper_code, status) are counted as duplicates.
func (db *DB) InsertRenewals(ctx context.Context, events []models.RenewalEvent, summaries []models.ChurnSummary) (models.RenewalWriteResult, error) {
	var res models.RenewalWriteResult
	if len(events) == 0 && len(summaries) == 0 {
		return res, nil
	}
	now := db.now().UTC()

	err := db.withTx(ctx, "insert_renewals", func(tx *sql.Tx) error {
		fresh, err := db.newRenewalEvents(ctx, tx, events)
		if err != nil {
			return err
		}
		res.EventsImported = len(fresh)
		res.DuplicatesSkipped = len(events) - len(fresh)

		for start := 0; start < len(fresh); start += writeChunk {
			chunk := fresh[start:min(start+writeChunk, len(fresh))]
			args := make([]interface{}, 0, len(chunk)*len(renewalColumns))
			for i := range chunk {
				e := &chunk[i]
				args = append(args, dateOnly(e.EventDate), e.SubNum, e.PaperCode, e.Status,
					e.SubscriptionType, nullString(e.SourceFilename), now)
			}
			if _, err := db.exec(ctx, tx, insertSQL("renewal_events", renewalColumns, len(chunk)), args...); err != nil {
				return fmt.Errorf("insert renewal_events: %w", err)
			}
		}

		update := without(churnColumns, churnKeys...)
		for start := 0; start < len(summaries); start += writeChunk {
			chunk := summaries[start:min(start+writeChunk, len(summaries))]
			args := make([]interface{}, 0, len(chunk)*len(churnColumns))
			for i := range chunk {
				s := &chunk[i]
				args = append(args, dateOnly(s.SnapshotDate), s.PaperCode, s.SubscriptionType,
					s.ExpiringCount, s.RenewedCount, s.StoppedCount, s.RenewalRate, s.ChurnRate, now)
			}
			q := db.dialect.upsertSQL("churn_daily_summary", churnColumns, churnKeys, update, len(chunk))
			if _, err := db.exec(ctx, tx, q, args...); err != nil {
				return fmt.Errorf("upsert churn_daily_summary: %w", err)
			}
		}
		res.SummariesImported = len(summaries)
		return nil
	})
	if err != nil {
		return models.RenewalWriteResult{}, err
	}
	return res, nil
}

// newRenewalEvents drops events already stored or repeated within events.
func (db *DB) newRenewalEvents(ctx context.Context, tx *sql.Tx, events []models.RenewalEvent) ([]models.RenewalEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}
	from, to := dateOnly(events[0].EventDate), dateOnly(events[0].EventDate)
	for i := range events {
		d := dateOnly(events[i].EventDate)
		if d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}

	rows, err := db.query(ctx, tx,
		`SELECT event_date, sub_num, paper_code, status FROM renewal_events WHERE event_date >= ? AND event_date <= ?`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("select existing renewals: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var d time.Time
		var sub, paper, status string
		if err := rows.Scan(&d, &sub, &paper, &status); err != nil {
			return nil, fmt.Errorf("scan existing renewal: %w", err)
		}
		seen[renewalKey(d, sub, paper, status)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fresh := make([]models.RenewalEvent, 0, len(events))
	for i := range events {
		e := events[i]
		k := renewalKey(e.EventDate, e.SubNum, e.PaperCode, e.Status)
		if seen[k] {
			continue
		}
		seen[k] = true
		fresh = append(fresh, e)
	}
	return fresh, nil
}
