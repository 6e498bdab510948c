// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/circulation/internal/database/query"
	"github.com/tomtom215/circulation/internal/models"
)

// writeChunk bounds rows per multi-row statement so the widest table stays
// under every driver's placeholder limit.
const writeChunk = 500

var snapshotColumns = []string{
	"snapshot_date", "week_num", "year", "paper_code", "paper_name", "business_unit",
	"total_active", "deliverable", "mail_delivery", "carrier_delivery", "digital_only",
	"on_vacation", "source_filename", "source_date", "updated_at",
}

var snapshotKeys = []string{"snapshot_date", "paper_code"}

var subscriberColumns = []string{
	"snapshot_date", "sub_num", "paper_code", "upload_id", "week_num", "year",
	"paper_name", "business_unit", "name", "route", "rate_name", "subscription_length",
	"delivery_type", "payment_status", "begin_date", "paid_thru", "daily_rate",
	"last_payment_amount", "on_vacation", "vacation_start", "vacation_end", "vacation_weeks",
	"address", "city_state_postal", "phone", "email", "abc", "issue_code",
	"login_id", "last_login", "source_filename", "source_date", "updated_at",
}

var subscriberKeys = []string{"snapshot_date", "sub_num", "paper_code"}

// WriteSubscriberBatch upserts one subscriber report's summary and detail
// rows in a single transaction.
func (db *DB) WriteSubscriberBatch(ctx context.Context, batch models.SnapshotBatch) (models.WriteResult, error) {
	var res models.WriteResult
	if len(batch.Snapshots) == 0 && len(batch.Subscribers) == 0 {
		return res, nil
	}
	now := db.now().UTC()

	err := db.withTx(ctx, "write_subscriber_batch", func(tx *sql.Tx) error {
		dates := batchDates(batch)

		existingSnaps, err := db.existingSnapshotKeys(ctx, tx, dates)
		if err != nil {
			return err
		}
		existingSubs, err := db.existingSubscriberKeys(ctx, tx, dates)
		if err != nil {
			return err
		}

		for i := range batch.Snapshots {
			if existingSnaps[snapshotKey(batch.Snapshots[i].SnapshotDate, batch.Snapshots[i].PaperCode)] {
				res.UpdatedSnapshots++
			} else {
				res.NewSnapshots++
			}
		}
		for i := range batch.Subscribers {
			r := &batch.Subscribers[i]
			if existingSubs[subscriberKey(r.SnapshotDate, r.SubNum, r.PaperCode)] {
				res.UpdatedRecords++
			} else {
				res.NewRecords++
			}
		}

		if err := db.upsertSnapshots(ctx, tx, batch, now); err != nil {
			return err
		}
		return db.upsertSubscribers(ctx, tx, batch, now)
	})
	if err != nil {
		return models.WriteResult{}, err
	}
	return res, nil
}

func batchDates(batch models.SnapshotBatch) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	add := func(t time.Time) {
		d := dateOnly(t)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for i := range batch.Snapshots {
		add(batch.Snapshots[i].SnapshotDate)
	}
	for i := range batch.Subscribers {
		add(batch.Subscribers[i].SnapshotDate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func snapshotKey(date time.Time, paper string) string {
	return dateOnly(date).Format("2006-01-02") + "|" + paper
}

func subscriberKey(date time.Time, sub, paper string) string {
	return models.SubscriberKey{SnapshotDate: dateOnly(date), SubNum: sub, PaperCode: paper}.String()
}

func dateArgs(dates []time.Time) []interface{} {
	args := make([]interface{}, len(dates))
	for i, d := range dates {
		args[i] = d
	}
	return args
}

func (db *DB) existingSnapshotKeys(ctx context.Context, tx *sql.Tx, dates []time.Time) (map[string]bool, error) {
	q := `SELECT snapshot_date, paper_code FROM daily_snapshots WHERE snapshot_date IN (` + query.Placeholders(len(dates)) + `)`
	rows, err := db.query(ctx, tx, q, dateArgs(dates)...)
	if err != nil {
		return nil, fmt.Errorf("select existing snapshots: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var d time.Time
		var paper string
		if err := rows.Scan(&d, &paper); err != nil {
			return nil, fmt.Errorf("scan existing snapshot: %w", err)
		}
		out[snapshotKey(d, paper)] = true
	}
	return out, rows.Err()
}

func (db *DB) existingSubscriberKeys(ctx context.Context, tx *sql.Tx, dates []time.Time) (map[string]bool, error) {
	q := `SELECT snapshot_date, sub_num, paper_code FROM subscriber_snapshots WHERE snapshot_date IN (` + query.Placeholders(len(dates)) + `)`
	rows, err := db.query(ctx, tx, q, dateArgs(dates)...)
	if err != nil {
		return nil, fmt.Errorf("select existing subscribers: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var d time.Time
		var sub, paper string
		if err := rows.Scan(&d, &sub, &paper); err != nil {
			return nil, fmt.Errorf("scan existing subscriber: %w", err)
		}
		out[subscriberKey(d, sub, paper)] = true
	}
	return out, rows.Err()
}

func (db *DB) upsertSnapshots(ctx context.Context, tx *sql.Tx, batch models.SnapshotBatch, now time.Time) error {
	update := without(snapshotColumns, append(snapshotKeys, "business_unit")...)
	for start := 0; start < len(batch.Snapshots); start += writeChunk {
		end := min(start+writeChunk, len(batch.Snapshots))
		chunk := batch.Snapshots[start:end]

		args := make([]interface{}, 0, len(chunk)*len(snapshotColumns))
		for i := range chunk {
			s := &chunk[i]
			filename := s.SourceFilename
			if filename == "" {
				filename = batch.Filename
			}
			onVacation := min(s.OnVacation, s.TotalActive)
			args = append(args,
				dateOnly(s.SnapshotDate), s.WeekNum, s.Year, s.PaperCode, s.PaperName, s.BusinessUnit,
				s.TotalActive, s.TotalActive-onVacation, s.MailDelivery, s.CarrierDelivery, s.DigitalOnly,
				onVacation, nullString(filename), nullDate(&s.SourceDate), now,
			)
		}
		q := db.dialect.upsertSQL("daily_snapshots", snapshotColumns, snapshotKeys, update, len(chunk))
		if _, err := db.exec(ctx, tx, q, args...); err != nil {
			return fmt.Errorf("upsert daily_snapshots: %w", err)
		}
	}
	return nil
}

func (db *DB) upsertSubscribers(ctx context.Context, tx *sql.Tx, batch models.SnapshotBatch, now time.Time) error {
	update := without(subscriberColumns, append(subscriberKeys, "business_unit")...)
	for start := 0; start < len(batch.Subscribers); start += writeChunk {
		end := min(start+writeChunk, len(batch.Subscribers))
		chunk := batch.Subscribers[start:end]

		args := make([]interface{}, 0, len(chunk)*len(subscriberColumns))
		for i := range chunk {
			r := &chunk[i]
			uploadID := r.UploadID
			if uploadID == 0 {
				uploadID = batch.UploadID
			}
			filename := r.SourceFilename
			if filename == "" {
				filename = batch.Filename
			}
			var lastLogin interface{}
			if r.LastLogin != nil {
				lastLogin = r.LastLogin.UTC()
			}
			args = append(args,
				dateOnly(r.SnapshotDate), r.SubNum, r.PaperCode, nullable(nonZero(uploadID)), r.WeekNum, r.Year,
				r.PaperName, r.BusinessUnit, nullString(r.Name), nullString(r.Route), nullString(r.RateName),
				nullString(r.SubscriptionLength), r.DeliveryType, nullString(r.PaymentStatus),
				nullDate(r.BeginDate), nullDate(r.PaidThru), nullable(r.DailyRate), nullable(r.LastPaymentAmount),
				r.OnVacation, nullDate(r.VacationStart), nullDate(r.VacationEnd), nullable(r.VacationWeeks),
				nullString(r.Address), nullString(r.CityStatePostal), nullString(r.Phone), nullString(r.Email),
				nullString(r.ABC), nullString(r.IssueCode), nullString(r.LoginID), lastLogin,
				nullString(filename), nullDate(&r.SourceDate), now,
			)
		}
		q := db.dialect.upsertSQL("subscriber_snapshots", subscriberColumns, subscriberKeys, update, len(chunk))
		if _, err := db.exec(ctx, tx, q, args...); err != nil {
			return fmt.Errorf("upsert subscriber_snapshots: %w", err)
		}
	}
	return nil
}

func nonZero(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
