// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tomtom215/circulation/internal/models"
)

func TestRevenueRows(t *testing.T) {
	db, mock := newMockDB(t, DialectPostgres, "FN")
	d := day("2025-12-07")

	mock.ExpectQuery(`LEFT JOIN rate_structure r\s+ON r.paper_code = s.paper_code AND r.subscription_length = s.subscription_length\s+` +
		regexp.QuoteMeta(`WHERE s.paper_code NOT IN ($1) AND s.snapshot_date = $2 AND s.last_payment_amount IS NOT NULL`)).
		WithArgs("FN", d).
		WillReturnRows(sqlmock.NewRows([]string{"unit", "code", "name", "delivery", "subs", "rev", "legacy", "legacy_rev"}).
			AddRow("Wyoming", "TR", "The Ranger", "CARR", 40, 6400.0, 10, 900.0).
			AddRow("Wyoming", "TR", "The Ranger", "MAIL", 5, 850.0, 0, 0.0))

	got, err := db.RevenueRows(context.Background(), d)
	if err != nil {
		t.Fatalf("RevenueRows() error = %v", err)
	}
	want := models.RevenueRow{BusinessUnit: "Wyoming", PaperCode: "TR", PaperName: "The Ranger", DeliveryType: "CARR",
		Subscribers: 40, Revenue: 6400, LegacySubscribers: 10, LegacyRevenue: 900}
	if len(got) != 2 || got[0] != want {
		t.Errorf("RevenueRows() = %+v, want first %+v", got, want)
	}
}

func TestRevenueRows_QueryError(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	mock.ExpectQuery("FROM subscriber_snapshots s").WillReturnError(errors.New("boom"))

	if _, err := db.RevenueRows(context.Background(), day("2025-12-07")); err == nil {
		t.Error("RevenueRows() error = nil, want error")
	}
}

func TestRevenueAtRisk(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	d := day("2025-12-07")
	bounds := []time.Time{d, d.AddDate(0, 0, 28), d.AddDate(0, 0, 56)}

	mock.ExpectQuery(regexp.QuoteMeta(`CASE WHEN s.paid_thru < ? THEN 0 WHEN s.paid_thru <= ? THEN 1 WHEN s.paid_thru <= ? THEN 2 ELSE 3 END`)).
		WithArgs(bounds[0], bounds[1], bounds[2], d).
		WillReturnRows(sqlmock.NewRows([]string{"unit", "bucket", "subs", "rev"}).
			AddRow("Michigan", 0, 3, 300.0).
			AddRow("Michigan", 3, 20, 3400.0))

	got, err := db.RevenueAtRisk(context.Background(), d, bounds)
	if err != nil {
		t.Fatalf("RevenueAtRisk() error = %v", err)
	}
	if len(got) != 2 || got[1] != (models.RiskRow{BusinessUnit: "Michigan", Bucket: 3, Subscribers: 20, Revenue: 3400}) {
		t.Errorf("RevenueAtRisk() = %+v", got)
	}

	if _, err := db.RevenueAtRisk(context.Background(), d, nil); err == nil {
		t.Error("RevenueAtRisk(no bounds) error = nil, want error")
	}
}

func TestAnnualMarketRates(t *testing.T) {
	db, mock := newMockDB(t, DialectMySQL)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rate_structure GROUP BY paper_code")).
		WillReturnRows(sqlmock.NewRows([]string{"code", "rate"}).
			AddRow("TJ", 169.0).
			AddRow("TR", nil).
			AddRow("WRN", 0.0))

	got, err := db.AnnualMarketRates(context.Background())
	if err != nil {
		t.Fatalf("AnnualMarketRates() error = %v", err)
	}
	if len(got) != 1 || got["TJ"] != 169 {
		t.Errorf("AnnualMarketRates() = %v, want map[TJ:169]", got)
	}
}
