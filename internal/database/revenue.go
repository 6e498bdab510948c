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

	"github.com/tomtom215/circulation/internal/models"
)

// legacyRateCondition matches a paying subscriber below the market rate of
// their paper and subscription length. Complimentary, government and free
// rates are never legacy, nor are zones flagged special or ignored.
const legacyRateCondition = `r.market_rate IS NOT NULL
	AND ABS(s.last_payment_amount) < r.market_rate
	AND UPPER(COALESCE(s.rate_name, '')) NOT LIKE '%COMP%'
	AND UPPER(COALESCE(s.rate_name, '')) NOT LIKE '%GOV%'
	AND UPPER(COALESCE(s.rate_name, '')) NOT LIKE '%FREE%'
	AND NOT EXISTS (SELECT 1 FROM rate_flags rf
		WHERE rf.paper_code = s.paper_code AND rf.zone = s.rate_name
		AND (rf.is_special = TRUE OR rf.is_ignored = TRUE))`

// yearlyLengths are the subscription lengths whose market rate is already
// a yearly amount.
const yearlyLengths = `'1 Y', '1Y', '12 M', '12M', '52 W', '52W'`

// RevenueRows sums the paying subscribers of date per paper and delivery
// type, joined with rate_structure to count legacy-rate subscribers.
func (db *DB) RevenueRows(ctx context.Context, date time.Time) ([]models.RevenueRow, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := db.detailWhere("s", nil, date)
	wb.AddClause("s.last_payment_amount IS NOT NULL AND s.last_payment_amount <> 0")
	where, args := wb.Build()

	rows, err := db.query(ctx, db.conn, `SELECT s.business_unit, s.paper_code, COALESCE(MAX(s.paper_name), ''),
		COALESCE(s.delivery_type, ''), COUNT(*), COALESCE(SUM(ABS(s.last_payment_amount)), 0),
		COUNT(CASE WHEN `+legacyRateCondition+` THEN 1 END),
		COALESCE(SUM(CASE WHEN `+legacyRateCondition+` THEN ABS(s.last_payment_amount) END), 0)
		FROM subscriber_snapshots s
		LEFT JOIN rate_structure r
			ON r.paper_code = s.paper_code AND r.subscription_length = s.subscription_length
		WHERE `+where+`
		GROUP BY s.business_unit, s.paper_code, COALESCE(s.delivery_type, '')
		ORDER BY s.business_unit, s.paper_code, 4`, args...)
	if err != nil {
		return nil, persistErr("revenue rows", err)
	}
	defer rows.Close()

	var out []models.RevenueRow
	for rows.Next() {
		var r models.RevenueRow
		if err := rows.Scan(&r.BusinessUnit, &r.PaperCode, &r.PaperName, &r.DeliveryType,
			&r.Subscribers, &r.Revenue, &r.LegacySubscribers, &r.LegacyRevenue); err != nil {
			return nil, persistErr("revenue rows", err)
		}
		out = append(out, r)
	}
	return out, wrapRowsErr("revenue rows", rows)
}

// RevenueAtRisk sums the paying subscribers of date per business unit and
// paid-through bucket. bounds must ascend: bucket 0 is paid through before
// bounds[0], bucket i is paid through on or before bounds[i] and bucket
// len(bounds) is everything later.
func (db *DB) RevenueAtRisk(ctx context.Context, date time.Time, bounds []time.Time) ([]models.RiskRow, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("revenue at risk: no bucket bounds")
	}
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	var bucket strings.Builder
	bucket.WriteString("CASE WHEN s.paid_thru < ? THEN 0")
	args := make([]interface{}, 0, len(bounds)+4)
	args = append(args, dateOnly(bounds[0]))
	for i := 1; i < len(bounds); i++ {
		fmt.Fprintf(&bucket, " WHEN s.paid_thru <= ? THEN %d", i)
		args = append(args, dateOnly(bounds[i]))
	}
	fmt.Fprintf(&bucket, " ELSE %d END", len(bounds))

	wb := db.detailWhere("s", nil, date)
	wb.AddClause("s.paid_thru IS NOT NULL")
	wb.AddClause("s.last_payment_amount IS NOT NULL AND s.last_payment_amount <> 0")
	where, whereArgs := wb.Build()
	args = append(args, whereArgs...)

	rows, err := db.query(ctx, db.conn, `SELECT s.business_unit, `+bucket.String()+`,
		COUNT(*), COALESCE(SUM(ABS(s.last_payment_amount)), 0)
		FROM subscriber_snapshots s WHERE `+where+`
		GROUP BY 1, 2 ORDER BY 1, 2`, args...)
	if err != nil {
		return nil, persistErr("revenue at risk", err)
	}
	defer rows.Close()

	var out []models.RiskRow
	for rows.Next() {
		var r models.RiskRow
		if err := rows.Scan(&r.BusinessUnit, &r.Bucket, &r.Subscribers, &r.Revenue); err != nil {
			return nil, persistErr("revenue at risk", err)
		}
		out = append(out, r)
	}
	return out, wrapRowsErr("revenue at risk", rows)
}

// AnnualMarketRates returns the yearly market rate of each paper in
// rate_structure. A paper without a yearly length falls back to its lowest
// annualized rate.
func (db *DB) AnnualMarketRates(ctx context.Context) (map[string]float64, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, db.conn, `SELECT paper_code,
		COALESCE(MAX(CASE WHEN subscription_length IN (`+yearlyLengths+`) THEN annualized_rate END), MIN(annualized_rate))
		FROM rate_structure GROUP BY paper_code ORDER BY paper_code`)
	if err != nil {
		return nil, persistErr("annual market rates", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var code string
		var rate sql.NullFloat64
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, persistErr("annual market rates", err)
		}
		if rate.Valid && rate.Float64 > 0 {
			out[code] = rate.Float64
		}
	}
	return out, wrapRowsErr("annual market rates", rows)
}
