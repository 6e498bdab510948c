// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tomtom215/circulation/internal/database/query"
	"github.com/tomtom215/circulation/internal/models"
)

const totalsColumns = `COALESCE(SUM(total_active), 0), COALESCE(SUM(on_vacation), 0),
	COALESCE(SUM(deliverable), 0), COALESCE(SUM(mail_delivery), 0),
	COALESCE(SUM(carrier_delivery), 0), COALESCE(SUM(digital_only), 0)`

func totalsDest(t *models.Totals) []interface{} {
	return []interface{}{&t.TotalActive, &t.OnVacation, &t.Deliverable, &t.Mail, &t.Carrier, &t.Digital}
}

// snapshotWhere starts a daily_snapshots filter with the excluded papers
// already removed.
func (db *DB) snapshotWhere() *query.WhereBuilder {
	wb := query.NewWhereBuilder()
	wb.AddNotIn("paper_code", db.excluded)
	return wb
}

// LatestSnapshotDate returns the newest snapshot date.
func (db *DB) LatestSnapshotDate(ctx context.Context) (time.Time, bool, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	where, args := db.snapshotWhere().Build()
	return db.scanDate(ctx, "latest snapshot date",
		`SELECT MAX(snapshot_date) FROM daily_snapshots WHERE `+where, args...)
}

// DataRange reports the first and last snapshot dates and how many
// distinct dates lie between them.
func (db *DB) DataRange(ctx context.Context) (models.DataRange, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	where, args := db.snapshotWhere().Build()
	var minDate, maxDate sql.NullTime
	var r models.DataRange
	err := db.queryRow(ctx, db.conn, `SELECT MIN(snapshot_date), MAX(snapshot_date), COUNT(DISTINCT snapshot_date)
		FROM daily_snapshots WHERE `+where, args...).Scan(&minDate, &maxDate, &r.TotalSnapshots)
	if err != nil {
		return r, persistErr("data range", err)
	}
	r.MinDate = timePtr(minDate)
	r.MaxDate = timePtr(maxDate)
	return r, nil
}

// Totals sums the snapshot rows of date, limited to units when non-empty.
func (db *DB) Totals(ctx context.Context, date time.Time, units []string) (models.Totals, bool, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := db.snapshotWhere()
	wb.AddClause("snapshot_date = ?", dateOnly(date))
	wb.AddIn("business_unit", units)
	where, args := wb.Build()

	var t models.Totals
	var rows int
	dest := append([]interface{}{&rows}, totalsDest(&t)...)
	err := db.queryRow(ctx, db.conn, `SELECT COUNT(*), `+totalsColumns+`
		FROM daily_snapshots WHERE `+where, args...).Scan(dest...)
	if err != nil {
		return t, false, persistErr("totals", err)
	}
	return t, rows > 0, nil
}

// UnitTotals sums the snapshot rows of date per business unit.
func (db *DB) UnitTotals(ctx context.Context, date time.Time) ([]models.UnitTotals, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := db.snapshotWhere()
	wb.AddClause("snapshot_date = ?", dateOnly(date))
	where, args := wb.Build()

	rows, err := db.query(ctx, db.conn, `SELECT business_unit, `+totalsColumns+`
		FROM daily_snapshots WHERE `+where+`
		GROUP BY business_unit ORDER BY business_unit`, args...)
	if err != nil {
		return nil, persistErr("unit totals", err)
	}
	defer rows.Close()

	var out []models.UnitTotals
	for rows.Next() {
		var u models.UnitTotals
		if err := rows.Scan(append([]interface{}{&u.BusinessUnit}, totalsDest(&u.Totals)...)...); err != nil {
			return nil, persistErr("unit totals", err)
		}
		out = append(out, u)
	}
	return out, wrapRowsErr("unit totals", rows)
}

// BusinessUnits lists the units reporting on date.
func (db *DB) BusinessUnits(ctx context.Context, date time.Time) ([]string, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := db.snapshotWhere()
	wb.AddClause("snapshot_date = ?", dateOnly(date))
	where, args := wb.Build()
	return db.scanStrings(ctx, "business units",
		`SELECT DISTINCT business_unit FROM daily_snapshots WHERE `+where+` ORDER BY business_unit`, args...)
}

// Series sums snapshots per date between from and to inclusive. An empty
// unit sums every unit.
func (db *DB) Series(ctx context.Context, unit string, from, to time.Time) ([]models.SeriesRow, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	f, t := dateOnly(from), dateOnly(to)
	wb := db.snapshotWhere()
	wb.AddEquals("business_unit", unit)
	wb.AddDateRange("snapshot_date", &f, &t)
	where, args := wb.Build()

	rows, err := db.query(ctx, db.conn, `SELECT snapshot_date, `+totalsColumns+`
		FROM daily_snapshots WHERE `+where+`
		GROUP BY snapshot_date ORDER BY snapshot_date`, args...)
	if err != nil {
		return nil, persistErr("series", err)
	}
	defer rows.Close()

	var out []models.SeriesRow
	for rows.Next() {
		var r models.SeriesRow
		if err := rows.Scan(append([]interface{}{&r.SnapshotDate}, totalsDest(&r.Totals)...)...); err != nil {
			return nil, persistErr("series", err)
		}
		r.SnapshotDate = dateOnly(r.SnapshotDate)
		out = append(out, r)
	}
	return out, wrapRowsErr("series", rows)
}

// PreviousSnapshotDate returns the newest snapshot date strictly before
// before. An empty unit considers every unit.
func (db *DB) PreviousSnapshotDate(ctx context.Context, unit string, before time.Time) (time.Time, bool, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := db.snapshotWhere()
	wb.AddEquals("business_unit", unit)
	wb.AddClause("snapshot_date < ?", dateOnly(before))
	where, args := wb.Build()
	return db.scanDate(ctx, "previous snapshot date",
		`SELECT MAX(snapshot_date) FROM daily_snapshots WHERE `+where, args...)
}

const snapshotSelect = `SELECT snapshot_date, week_num, year, paper_code, paper_name, business_unit,
	total_active, deliverable, mail_delivery, carrier_delivery, digital_only, on_vacation,
	source_filename, source_date FROM daily_snapshots`

func scanSnapshot(r rowScanner) (models.DailySnapshot, error) {
	var s models.DailySnapshot
	var name, file sql.NullString
	var source sql.NullTime
	err := r.Scan(&s.SnapshotDate, &s.WeekNum, &s.Year, &s.PaperCode, &name, &s.BusinessUnit,
		&s.TotalActive, &s.Deliverable, &s.MailDelivery, &s.CarrierDelivery, &s.DigitalOnly, &s.OnVacation,
		&file, &source)
	if err != nil {
		return s, err
	}
	s.SnapshotDate = dateOnly(s.SnapshotDate)
	s.PaperName = name.String
	s.SourceFilename = file.String
	if source.Valid {
		s.SourceDate = dateOnly(source.Time)
	}
	return s, nil
}

// Editions returns the paper rows of date, largest first. An empty unit
// returns every unit.
func (db *DB) Editions(ctx context.Context, date time.Time, unit string) ([]models.DailySnapshot, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := db.snapshotWhere()
	wb.AddClause("snapshot_date = ?", dateOnly(date))
	wb.AddEquals("business_unit", unit)
	where, args := wb.Build()

	rows, err := db.query(ctx, db.conn, snapshotSelect+` WHERE `+where+` ORDER BY total_active DESC, paper_code`, args...)
	if err != nil {
		return nil, persistErr("editions", err)
	}
	defer rows.Close()

	var out []models.DailySnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, persistErr("editions", err)
		}
		out = append(out, s)
	}
	return out, wrapRowsErr("editions", rows)
}

// UnitPapers lists the papers that have reported under unit.
func (db *DB) UnitPapers(ctx context.Context, unit string) ([]models.Paper, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := db.snapshotWhere()
	wb.AddClause("business_unit = ?", unit)
	where, args := wb.Build()

	rows, err := db.query(ctx, db.conn, `SELECT paper_code, MAX(paper_name) FROM daily_snapshots
		WHERE `+where+` GROUP BY paper_code ORDER BY paper_code`, args...)
	if err != nil {
		return nil, persistErr("unit papers", err)
	}
	defer rows.Close()

	var out []models.Paper
	for rows.Next() {
		var p models.Paper
		var name sql.NullString
		if err := rows.Scan(&p.Code, &name); err != nil {
			return nil, persistErr("unit papers", err)
		}
		p.Name = name.String
		p.BusinessUnit = unit
		out = append(out, p)
	}
	return out, wrapRowsErr("unit papers", rows)
}

// LatestPaperSnapshot returns the newest row of one paper, or nil.
func (db *DB) LatestPaperSnapshot(ctx context.Context, code string) (*models.DailySnapshot, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	row := db.queryRow(ctx, db.conn, snapshotSelect+` WHERE paper_code = ? ORDER BY snapshot_date DESC LIMIT 1`, code)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("latest paper snapshot", err)
	}
	return &s, nil
}

// scanDate reads a single nullable DATE aggregate.
func (db *DB) scanDate(ctx context.Context, op, q string, args ...interface{}) (time.Time, bool, error) {
	var d sql.NullTime
	if err := db.queryRow(ctx, db.conn, q, args...).Scan(&d); err != nil {
		return time.Time{}, false, persistErr(op, err)
	}
	if !d.Valid {
		return time.Time{}, false, nil
	}
	return dateOnly(d.Time), true, nil
}

func (db *DB) scanStrings(ctx context.Context, op, q string, args ...interface{}) ([]string, error) {
	rows, err := db.query(ctx, db.conn, q, args...)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, persistErr(op, err)
		}
		out = append(out, s)
	}
	return out, wrapRowsErr(op, rows)
}

func wrapRowsErr(op string, rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		return persistErr(op, err)
	}
	return nil
}
