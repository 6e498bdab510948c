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
	"strconv"

	"github.com/tomtom215/circulation/internal/database/query"
	"github.com/tomtom215/circulation/internal/models"
)

var rateFlagKeys = []string{"paper_code", "zone", "rate_name", "subscription_length", "rate_amount"}

var rateImportColumns = append(append([]string{}, rateFlagKeys...),
	"auto_detected_legacy", "rate_id", "length", "length_type", "effective_date", "annualized_rate", "updated_at")

var rateManualColumns = append(append([]string{}, rateFlagKeys...),
	"is_legacy", "is_ignored", "is_special", "updated_at")

var rateStructureColumns = []string{
	"paper_code", "subscription_length", "market_rate", "rate_name", "annualized_rate", "updated_at",
}

var rateStructureKeys = []string{"paper_code", "subscription_length"}

func rateFlagKeyString(k *models.RateFlagKey) string {
	return k.PaperCode + "|" + k.Zone + "|" + k.RateName + "|" + k.SubscriptionLength + "|" +
		strconv.FormatFloat(k.RateAmount, 'f', 2, 64)
}

// UpsertRates writes a rates export. Existing rows keep their manual flags.
// The market rate of each (paper_code, subscription_length) is the highest
// positive amount among rows that are neither auto-detected legacy nor
// manually flagged.
func (db *DB) UpsertRates(ctx context.Context, rates []models.RateRecord) (models.RateWriteResult, error) {
	var res models.RateWriteResult
	if len(rates) == 0 {
		return res, nil
	}
	now := db.now().UTC()

	err := db.withTx(ctx, "upsert_rates", func(tx *sql.Tx) error {
		existing, err := db.existingRateFlags(ctx, tx, rates)
		if err != nil {
			return err
		}

		seen := make(map[string]bool, len(rates))
		rows := make([]models.RateRecord, 0, len(rates))
		for i := range rates {
			k := rateFlagKeyString(&rates[i].RateFlagKey)
			if seen[k] {
				continue
			}
			seen[k] = true
			rows = append(rows, rates[i])
			if _, ok := existing[k]; ok {
				res.UpdatedRates++
			} else {
				res.NewRates++
			}
		}

		update := without(rateImportColumns, rateFlagKeys...)
		for start := 0; start < len(rows); start += writeChunk {
			chunk := rows[start:min(start+writeChunk, len(rows))]
			args := make([]interface{}, 0, len(chunk)*len(rateImportColumns))
			for i := range chunk {
				r := &chunk[i]
				args = append(args, r.PaperCode, r.Zone, r.RateName, r.SubscriptionLength, r.RateAmount,
					r.AutoDetectedLegacy, nullString(r.RateID), r.Length, nullString(r.LengthType),
					nullDate(r.EffectiveDate), r.AnnualizedRate, now)
			}
			q := db.dialect.upsertSQL("rate_flags", rateImportColumns, rateFlagKeys, update, len(chunk))
			if _, err := db.exec(ctx, tx, q, args...); err != nil {
				return fmt.Errorf("upsert rate_flags: %w", err)
			}
		}

		markets := marketRates(rows, existing)
		res.MarketRates = len(markets)
		if len(markets) == 0 {
			return nil
		}
		args := make([]interface{}, 0, len(markets)*len(rateStructureColumns))
		for _, m := range markets {
			args = append(args, m.PaperCode, m.SubscriptionLength, m.MarketRate, nullString(m.RateName), m.AnnualizedRate, now)
		}
		q := db.dialect.upsertSQL("rate_structure", rateStructureColumns, rateStructureKeys,
			without(rateStructureColumns, rateStructureKeys...), len(markets))
		if _, err := db.exec(ctx, tx, q, args...); err != nil {
			return fmt.Errorf("upsert rate_structure: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.RateWriteResult{}, err
	}
	return res, nil
}

// existingRateFlags returns the stored rows of the papers in rates, keyed
// by rateFlagKeyString.
func (db *DB) existingRateFlags(ctx context.Context, tx *sql.Tx, rates []models.RateRecord) (map[string]models.RateFlag, error) {
	papers := make(map[string]bool)
	for i := range rates {
		papers[rates[i].PaperCode] = true
	}
	codes := make([]string, 0, len(papers))
	for p := range papers {
		codes = append(codes, p)
	}
	sort.Strings(codes)

	wb := query.NewWhereBuilder()
	wb.AddIn("paper_code", codes)
	where, args := wb.Build()

	rows, err := db.query(ctx, tx, `SELECT paper_code, zone, rate_name, subscription_length, rate_amount,
		is_legacy, is_ignored, is_special, auto_detected_legacy
		FROM rate_flags WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("select existing rate flags: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.RateFlag)
	for rows.Next() {
		f, err := scanRateFlag(rows)
		if err != nil {
			return nil, err
		}
		out[rateFlagKeyString(&f.RateFlagKey)] = f
	}
	return out, rows.Err()
}

func marketRates(rows []models.RateRecord, existing map[string]models.RateFlag) []models.RateStructure {
	best := make(map[[2]string]models.RateStructure)
	for i := range rows {
		r := &rows[i]
		if r.RateAmount <= 0 || r.AutoDetectedLegacy {
			continue
		}
		if f, ok := existing[rateFlagKeyString(&r.RateFlagKey)]; ok && f.Flagged() {
			continue
		}
		k := [2]string{r.PaperCode, r.SubscriptionLength}
		if cur, ok := best[k]; ok && cur.MarketRate >= r.RateAmount {
			continue
		}
		best[k] = models.RateStructure{
			PaperCode:          r.PaperCode,
			SubscriptionLength: r.SubscriptionLength,
			MarketRate:         r.RateAmount,
			RateName:           r.RateName,
			AnnualizedRate:     r.AnnualizedRate,
		}
	}

	out := make([]models.RateStructure, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PaperCode != out[j].PaperCode {
			return out[i].PaperCode < out[j].PaperCode
		}
		return out[i].SubscriptionLength < out[j].SubscriptionLength
	})
	return out
}

// SetRateFlag stores the manual flags of one rate, creating the row when
// the rate has not been imported yet.
func (db *DB) SetRateFlag(ctx context.Context, flag models.RateFlag) error {
	q := db.dialect.upsertSQL("rate_flags", rateManualColumns, rateFlagKeys,
		without(rateManualColumns, rateFlagKeys...), 1)
	return db.withTx(ctx, "set_rate_flag", func(tx *sql.Tx) error {
		_, err := db.exec(ctx, tx, q,
			flag.PaperCode, flag.Zone, flag.RateName, flag.SubscriptionLength, flag.RateAmount,
			flag.IsLegacy, flag.IsIgnored, flag.IsSpecial, db.now().UTC())
		return err
	})
}

// RateFlags lists every stored rate outside the excluded papers.
func (db *DB) RateFlags(ctx context.Context) ([]models.RateFlag, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := query.NewWhereBuilder()
	wb.AddNotIn("paper_code", db.excluded)
	where, args := wb.Build()

	rows, err := db.query(ctx, db.conn, `SELECT paper_code, zone, rate_name, subscription_length, rate_amount,
		is_legacy, is_ignored, is_special, auto_detected_legacy
		FROM rate_flags WHERE `+where+`
		ORDER BY paper_code, subscription_length, rate_amount DESC, zone, rate_name`, args...)
	if err != nil {
		return nil, persistErr("rate flags", err)
	}
	defer rows.Close()

	var out []models.RateFlag
	for rows.Next() {
		f, err := scanRateFlag(rows)
		if err != nil {
			return nil, persistErr("rate flags", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("rate flags", err)
	}
	return out, nil
}

// ZoneUsage counts subscribers per rate name in the latest subscriber
// snapshot, with their average last payment.
func (db *DB) ZoneUsage(ctx context.Context) ([]models.ZoneUsage, error) {
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	wb := query.NewWhereBuilder()
	wb.AddNotIn("paper_code", db.excluded)
	wb.AddClause("snapshot_date = (SELECT MAX(snapshot_date) FROM subscriber_snapshots)")
	wb.AddClause("rate_name IS NOT NULL AND rate_name <> ''")
	where, args := wb.Build()

	rows, err := db.query(ctx, db.conn, `SELECT rate_name, COUNT(*), AVG(last_payment_amount)
		FROM subscriber_snapshots WHERE `+where+`
		GROUP BY rate_name ORDER BY COUNT(*) DESC, rate_name`, args...)
	if err != nil {
		return nil, persistErr("zone usage", err)
	}
	defer rows.Close()

	var out []models.ZoneUsage
	for rows.Next() {
		var z models.ZoneUsage
		var avg sql.NullFloat64
		if err := rows.Scan(&z.Zone, &z.SubscriberCount, &avg); err != nil {
			return nil, persistErr("zone usage", err)
		}
		if avg.Valid {
			z.AverageRate = avg.Float64
		}
		out = append(out, z)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("zone usage", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRateFlag(r rowScanner) (models.RateFlag, error) {
	var f models.RateFlag
	err := r.Scan(&f.PaperCode, &f.Zone, &f.RateName, &f.SubscriptionLength, &f.RateAmount,
		&f.IsLegacy, &f.IsIgnored, &f.IsSpecial, &f.AutoDetectedLegacy)
	if err != nil {
		return f, fmt.Errorf("scan rate flag: %w", err)
	}
	return f, nil
}
