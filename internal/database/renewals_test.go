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

func TestInsertRenewals(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	d1, d2 := day("2025-12-01"), day("2025-12-03")

	events := []models.RenewalEvent{
		{EventDate: d1, SubNum: "100", PaperCode: "TR", Status: models.RenewalStatusRenew, SubscriptionType: models.SubscriptionRegular},
		{EventDate: d2, SubNum: "101", PaperCode: "TR", Status: models.RenewalStatusExpire, SubscriptionType: models.SubscriptionMonthly},
		{EventDate: d2, SubNum: "101", PaperCode: "TR", Status: models.RenewalStatusExpire, SubscriptionType: models.SubscriptionMonthly},
	}
	summaries := []models.ChurnSummary{
		{SnapshotDate: d1, PaperCode: "TR", SubscriptionType: models.SubscriptionRegular, ExpiringCount: 10, RenewedCount: 8, StoppedCount: 2, RenewalRate: 80, ChurnRate: 20},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_date, sub_num, paper_code, status FROM renewal_events WHERE event_date >= ? AND event_date <= ?")).
		WithArgs(d1, d2).
		WillReturnRows(sqlmock.NewRows([]string{"event_date", "sub_num", "paper_code", "status"}).
			AddRow(d1, "100", "TR", models.RenewalStatusRenew))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO renewal_events (event_date, sub_num, paper_code, status, subscription_type, source_filename, imported_at) VALUES (?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(d2, "101", "TR", models.RenewalStatusExpire, models.SubscriptionMonthly, nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO churn_daily_summary")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := db.InsertRenewals(context.Background(), events, summaries)
	if err != nil {
		t.Fatalf("InsertRenewals() error = %v", err)
	}
	want := models.RenewalWriteResult{EventsImported: 1, DuplicatesSkipped: 2, SummariesImported: 1}
	if res != want {
		t.Errorf("InsertRenewals() = %+v, want %+v", res, want)
	}
}

func TestInsertRenewals_SummariesOnly(t *testing.T) {
	db, mock := newMockDB(t, DialectMySQL)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE expiring_count = VALUES(expiring_count)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := db.InsertRenewals(context.Background(), nil, []models.ChurnSummary{
		{SnapshotDate: day("2025-12-01"), PaperCode: "TJ", SubscriptionType: models.SubscriptionRegular},
	})
	if err != nil {
		t.Fatalf("InsertRenewals() error = %v", err)
	}
	if res.SummariesImported != 1 || res.EventsImported != 0 {
		t.Errorf("InsertRenewals() = %+v", res)
	}
}
