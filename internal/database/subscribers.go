// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/circulation/internal/database/query"
	"github.com/tomtom215/circulation/internal/models"
)

// maxSubscriberRows caps one drill-down listing.
const maxSubscriberRows = 5000

// detailWhere filters subscriber_snapshots rows of papers on date. Column
// names are qualified with prefix when it is non-empty.
func (db *DB) detailWhere(prefix string, papers []string, date time.Time) *query.WhereBuilder {
	col := func(c string) string {
		if prefix == "" {
			return c
		}
		return prefix + "." + c
	}
	wb := query.NewWhereBuilder()
	wb.AddNotIn(col("paper_code"), db.excluded)
	wb.AddIn(col("paper_code"), papers)
	wb.AddClause(col("snapshot_date")+" = ?", dateOnly(date))
	return wb
}

// LatestDetailDate is the newest subscriber snapshot of papers on or before
// onOrBefore.
func (db *DB) LatestDetailDate(ctx context.Context, papers []string, onOrBefore time.Time) (time.Time, bool, error) {
	if len(papers) == 0 {
		return time.Time{}, false, nil
	}
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := query.NewWhereBuilder()
	wb.AddNotIn("paper_code", db.excluded)
	wb.AddIn("paper_code", papers)
	wb.AddClause("snapshot_date <= ?", dateOnly(onOrBefore))
	where, args := wb.Build()
	return db.scanDate(ctx, "latest detail date",
		`SELECT MAX(snapshot_date) FROM subscriber_snapshots WHERE `+where, args...)
}

// Distribution counts the subscribers of papers on date per value of dim.
// Empty values are left out.
func (db *DB) Distribution(ctx context.Context, papers []string, date time.Time, dim models.Dimension) ([]models.CountBucket, error) {
	var column string
	switch dim {
	case models.DimensionRate, models.DimensionLength:
		column = string(dim)
	default:
		return nil, fmt.Errorf("unknown dimension %q", dim)
	}
	if len(papers) == 0 {
		return nil, nil
	}
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := db.detailWhere("", papers, date)
	wb.AddClause(column + " IS NOT NULL AND " + column + " <> ''")
	where, args := wb.Build()

	rows, err := db.query(ctx, db.conn, `SELECT `+column+`, COUNT(*) FROM subscriber_snapshots
		WHERE `+where+` GROUP BY `+column+` ORDER BY COUNT(*) DESC, `+column, args...)
	if err != nil {
		return nil, persistErr("distribution", err)
	}
	defer rows.Close()

	var out []models.CountBucket
	for rows.Next() {
		var b models.CountBucket
		if err := rows.Scan(&b.Value, &b.Count); err != nil {
			return nil, persistErr("distribution", err)
		}
		out = append(out, b)
	}
	return out, wrapRowsErr("distribution", rows)
}

// PaidThruCounts counts the subscribers of papers on date per paid_thru
// date, up to until.
func (db *DB) PaidThruCounts(ctx context.Context, papers []string, date, until time.Time) ([]models.DateCount, error) {
	if len(papers) == 0 {
		return nil, nil
	}
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := db.detailWhere("", papers, date)
	wb.AddClause("paid_thru IS NOT NULL")
	wb.AddClause("paid_thru <= ?", dateOnly(until))
	where, args := wb.Build()

	rows, err := db.query(ctx, db.conn, `SELECT paid_thru, COUNT(*) FROM subscriber_snapshots
		WHERE `+where+` GROUP BY paid_thru ORDER BY paid_thru`, args...)
	if err != nil {
		return nil, persistErr("paid thru counts", err)
	}
	defer rows.Close()

	var out []models.DateCount
	for rows.Next() {
		var c models.DateCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, persistErr("paid thru counts", err)
		}
		c.Date = dateOnly(c.Date)
		out = append(out, c)
	}
	return out, wrapRowsErr("paid thru counts", rows)
}

func (db *DB) subscriberFilterWhere(f models.SubscriberFilter) *query.WhereBuilder {
	wb := db.detailWhere("s", f.PaperCodes, f.SnapshotDate)
	wb.AddEquals("s.business_unit", f.BusinessUnit)
	wb.AddEquals("s.rate_name", f.RateName)
	wb.AddIn("s.subscription_length", f.SubscriptionLengths)
	if f.PaidThruBefore != nil {
		wb.AddClause("s.paid_thru < ?", dateOnly(*f.PaidThruBefore))
	}
	if f.PaidThruFrom != nil {
		wb.AddClause("s.paid_thru >= ?", dateOnly(*f.PaidThruFrom))
	}
	if f.PaidThruTo != nil {
		wb.AddClause("s.paid_thru <= ?", dateOnly(*f.PaidThruTo))
	}
	return wb
}

// Subscribers lists the contact view of the rows matching f, soonest
// expiration first.
func (db *DB) Subscribers(ctx context.Context, f models.SubscriberFilter) ([]models.SubscriberContact, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	limit := f.Limit
	if limit <= 0 || limit > maxSubscriberRows {
		limit = maxSubscriberRows
	}
	where, args := db.subscriberFilterWhere(f).Build()
	args = append(args, limit)

	rows, err := db.query(ctx, db.conn, `SELECT s.sub_num, s.name, s.phone, s.email, s.address, s.city_state_postal,
		s.paper_code, s.paper_name, s.rate_name, r.rate_amount, s.last_payment_amount, s.payment_status,
		s.paid_thru, s.delivery_type
		FROM subscriber_snapshots s
		LEFT JOIN (SELECT paper_code, zone, MAX(rate_amount) AS rate_amount
			FROM rate_flags GROUP BY paper_code, zone) r
			ON r.paper_code = s.paper_code AND r.zone = s.rate_name
		WHERE `+where+`
		ORDER BY s.paid_thru, s.sub_num LIMIT ?`, args...)
	if err != nil {
		return nil, persistErr("subscribers", err)
	}
	defer rows.Close()

	var out []models.SubscriberContact
	for rows.Next() {
		var c models.SubscriberContact
		var name, phone, email, addr, csp, paperName, rate, payment, delivery sql.NullString
		var amount, lastPayment sql.NullFloat64
		var paidThru sql.NullTime
		if err := rows.Scan(&c.AccountID, &name, &phone, &email, &addr, &csp, &c.PaperCode, &paperName,
			&rate, &amount, &lastPayment, &payment, &paidThru, &delivery); err != nil {
			return nil, persistErr("subscribers", err)
		}
		c.SubscriberName = name.String
		c.Phone = phone.String
		c.Email = email.String
		c.MailingAddress = strings.TrimSpace(addr.String + " " + csp.String)
		c.PaperName = paperName.String
		c.CurrentRate = rate.String
		c.RateAmount = floatPtr(amount)
		c.LastPaymentAmount = floatPtr(lastPayment)
		c.PaymentMethod = payment.String
		c.ExpirationDate = timePtr(paidThru)
		c.DeliveryType = delivery.String
		out = append(out, c)
	}
	return out, wrapRowsErr("subscribers", rows)
}

// CountSubscribers counts the rows matching f, ignoring f.Limit.
func (db *DB) CountSubscribers(ctx context.Context, f models.SubscriberFilter) (int, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	where, args := db.subscriberFilterWhere(f).Build()
	var n int
	if err := db.queryRow(ctx, db.conn, `SELECT COUNT(*) FROM subscriber_snapshots s WHERE `+where, args...).Scan(&n); err != nil {
		return 0, persistErr("count subscribers", err)
	}
	return n, nil
}
