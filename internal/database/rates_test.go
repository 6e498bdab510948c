// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tomtom215/circulation/internal/models"
)

func rate(paper, zone, length string, amount float64) models.RateRecord {
	return models.RateRecord{RateFlagKey: models.RateFlagKey{
		PaperCode: paper, Zone: zone, RateName: zone, SubscriptionLength: length, RateAmount: amount,
	}}
}

var rateFlagRowColumns = []string{
	"paper_code", "zone", "rate_name", "subscription_length", "rate_amount",
	"is_legacy", "is_ignored", "is_special", "auto_detected_legacy",
}

func TestUpsertRates(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)

	legacy := rate("TR", "ZONE-L", "12 M", 90)
	legacy.AutoDetectedLegacy = true
	rates := []models.RateRecord{
		rate("TR", "ZONE-A", "12 M", 120),
		rate("TR", "ZONE-B", "12 M", 150), // manually flagged special
		rate("TR", "ZONE-C", "6 M", 0),
		legacy,
		rate("TJ", "ZONE-A", "12 M", 110),
		rate("TJ", "ZONE-A", "12 M", 110),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM rate_flags WHERE paper_code IN (?, ?)")).
		WithArgs("TJ", "TR").
		WillReturnRows(sqlmock.NewRows(rateFlagRowColumns).
			AddRow("TR", "ZONE-B", "ZONE-B", "12 M", 150.0, false, false, true, false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rate_flags")).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rate_structure")).
		WithArgs(
			"TJ", "12 M", 110.0, "ZONE-A", 0.0, fixedNow,
			"TR", "12 M", 120.0, "ZONE-A", 0.0, fixedNow,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := db.UpsertRates(context.Background(), rates)
	if err != nil {
		t.Fatalf("UpsertRates() error = %v", err)
	}
	want := models.RateWriteResult{NewRates: 4, UpdatedRates: 1, MarketRates: 2}
	if res != want {
		t.Errorf("UpsertRates() = %+v, want %+v", res, want)
	}
}

func TestUpsertRates_KeepsManualFlags(t *testing.T) {
	update := without(rateImportColumns, rateFlagKeys...)
	for _, c := range update {
		switch c {
		case "is_legacy", "is_ignored", "is_special":
			t.Errorf("rates import overwrites manual flag %s", c)
		}
	}
}

func TestSetRateFlag(t *testing.T) {
	db, mock := newMockDB(t, DialectPostgres)
	flag := models.RateFlag{
		RateFlagKey: models.RateFlagKey{PaperCode: "TR", Zone: "ZONE-A", RateName: "ZONE-A", SubscriptionLength: "12 M", RateAmount: 120},
		IsLegacy:    true,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (paper_code, zone, rate_name, subscription_length, rate_amount) DO UPDATE SET is_legacy = excluded.is_legacy")).
		WithArgs("TR", "ZONE-A", "ZONE-A", "12 M", 120.0, true, false, false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := db.SetRateFlag(context.Background(), flag); err != nil {
		t.Fatalf("SetRateFlag() error = %v", err)
	}
}

func TestRateFlags_ExcludesPapers(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB, "FN")

	mock.ExpectQuery(regexp.QuoteMeta("FROM rate_flags WHERE paper_code NOT IN (?)")).
		WithArgs("FN").
		WillReturnRows(sqlmock.NewRows(rateFlagRowColumns).
			AddRow("TR", "ZONE-A", "ZONE-A", "12 M", 120.0, false, false, false, false).
			AddRow("TR", "ZONE-L", "ZONE-L", "12 M", 90.0, false, false, false, true))

	flags, err := db.RateFlags(context.Background())
	if err != nil {
		t.Fatalf("RateFlags() error = %v", err)
	}
	if len(flags) != 2 || !flags[1].AutoDetectedLegacy || flags[0].RateAmount != 120 {
		t.Errorf("RateFlags() = %+v", flags)
	}
}

func TestZoneUsage(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT rate_name, COUNT(*), AVG(last_payment_amount)")).
		WillReturnRows(sqlmock.NewRows([]string{"rate_name", "count", "avg"}).
			AddRow("ZONE-A", 40, 118.5).
			AddRow("ZONE-B", 3, nil))

	usage, err := db.ZoneUsage(context.Background())
	if err != nil {
		t.Fatalf("ZoneUsage() error = %v", err)
	}
	want := []models.ZoneUsage{
		{Zone: "ZONE-A", SubscriberCount: 40, AverageRate: 118.5},
		{Zone: "ZONE-B", SubscriberCount: 3},
	}
	if len(usage) != len(want) {
		t.Fatalf("ZoneUsage() = %+v, want %+v", usage, want)
	}
	for i := range want {
		if usage[i] != want[i] {
			t.Errorf("ZoneUsage()[%d] = %+v, want %+v", i, usage[i], want[i])
		}
	}
}
