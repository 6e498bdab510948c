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

	"github.com/tomtom215/circulation/internal/analytics"
	"github.com/tomtom215/circulation/internal/models"
)

var _ analytics.Store = (*DB)(nil)

var totalsRowColumns = []string{"total_active", "on_vacation", "deliverable", "mail", "carrier", "digital"}

func TestLatestSnapshotDate_Postgres(t *testing.T) {
	db, mock := newMockDB(t, DialectPostgres, "FN")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(snapshot_date) FROM daily_snapshots WHERE paper_code NOT IN ($1)")).
		WithArgs("FN").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(day("2025-12-07")))

	d, ok, err := db.LatestSnapshotDate(context.Background())
	if err != nil || !ok || !d.Equal(day("2025-12-07")) {
		t.Errorf("LatestSnapshotDate() = %v, %v, %v", d, ok, err)
	}
}

func TestLatestSnapshotDate_Empty(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	mock.ExpectQuery("SELECT MAX").WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	_, ok, err := db.LatestSnapshotDate(context.Background())
	if err != nil || ok {
		t.Errorf("LatestSnapshotDate() ok = %v, err = %v, want false, nil", ok, err)
	}
}

func TestDataRange(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MIN(snapshot_date), MAX(snapshot_date), COUNT(DISTINCT snapshot_date)")).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max", "n"}).AddRow(day("2024-01-07"), day("2025-12-07"), 101))

	r, err := db.DataRange(context.Background())
	if err != nil {
		t.Fatalf("DataRange() error = %v", err)
	}
	if r.MinDate == nil || !r.MinDate.Equal(day("2024-01-07")) || r.TotalSnapshots != 101 {
		t.Errorf("DataRange() = %+v", r)
	}
}

func TestTotals(t *testing.T) {
	d := day("2025-12-07")

	t.Run("units filter", func(t *testing.T) {
		db, mock := newMockDB(t, DialectDuckDB, "FN")
		mock.ExpectQuery(regexp.QuoteMeta("WHERE paper_code NOT IN (?) AND snapshot_date = ? AND business_unit IN (?, ?)")).
			WithArgs("FN", d, "Michigan", "Wyoming").
			WillReturnRows(sqlmock.NewRows(append([]string{"rows"}, totalsRowColumns...)).
				AddRow(3, 1000, 50, 950, 400, 500, 100))

		got, ok, err := db.Totals(context.Background(), d, []string{"Michigan", "Wyoming"})
		if err != nil || !ok {
			t.Fatalf("Totals() ok = %v, err = %v", ok, err)
		}
		want := models.Totals{TotalActive: 1000, OnVacation: 50, Deliverable: 950, Mail: 400, Carrier: 500, Digital: 100}
		if got != want {
			t.Errorf("Totals() = %+v, want %+v", got, want)
		}
	})

	t.Run("no rows", func(t *testing.T) {
		db, mock := newMockDB(t, DialectDuckDB)
		mock.ExpectQuery("FROM daily_snapshots").
			WillReturnRows(sqlmock.NewRows(append([]string{"rows"}, totalsRowColumns...)).AddRow(0, 0, 0, 0, 0, 0, 0))

		_, ok, err := db.Totals(context.Background(), d, nil)
		if err != nil || ok {
			t.Errorf("Totals() ok = %v, err = %v, want false, nil", ok, err)
		}
	})
}

func TestUnitTotals(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY business_unit ORDER BY business_unit")).
		WillReturnRows(sqlmock.NewRows(append([]string{"business_unit"}, totalsRowColumns...)).
			AddRow("Michigan", 400, 0, 400, 400, 0, 0).
			AddRow("Wyoming", 600, 20, 580, 0, 500, 100))

	got, err := db.UnitTotals(context.Background(), day("2025-12-07"))
	if err != nil {
		t.Fatalf("UnitTotals() error = %v", err)
	}
	if len(got) != 2 || got[1].BusinessUnit != "Wyoming" || got[1].Deliverable != 580 {
		t.Errorf("UnitTotals() = %+v", got)
	}
}

func TestSeries(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	from, to := day("2025-11-30"), day("2025-12-07")

	mock.ExpectQuery(regexp.QuoteMeta("business_unit = ? AND snapshot_date >= ? AND snapshot_date <= ?")).
		WithArgs("Wyoming", from, to).
		WillReturnRows(sqlmock.NewRows(append([]string{"snapshot_date"}, totalsRowColumns...)).
			AddRow(from, 590, 10, 580, 0, 490, 100).
			AddRow(to, 600, 20, 580, 0, 500, 100))

	rows, err := db.Series(context.Background(), "Wyoming", from, to)
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	if len(rows) != 2 || !rows[0].SnapshotDate.Equal(from) || rows[1].TotalActive != 600 {
		t.Errorf("Series() = %+v", rows)
	}
}

func TestPreviousSnapshotDate(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	mock.ExpectQuery(regexp.QuoteMeta("snapshot_date < ?")).
		WithArgs(day("2025-12-07")).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(day("2025-11-30")))

	d, ok, err := db.PreviousSnapshotDate(context.Background(), "", day("2025-12-07"))
	if err != nil || !ok || !d.Equal(day("2025-11-30")) {
		t.Errorf("PreviousSnapshotDate() = %v, %v, %v", d, ok, err)
	}
}

var snapshotRowColumns = []string{
	"snapshot_date", "week_num", "year", "paper_code", "paper_name", "business_unit",
	"total_active", "deliverable", "mail_delivery", "carrier_delivery", "digital_only", "on_vacation",
	"source_filename", "source_date",
}

func TestEditions(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	d := day("2025-12-07")

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY total_active DESC, paper_code")).
		WithArgs(d, "Wyoming").
		WillReturnRows(sqlmock.NewRows(snapshotRowColumns).
			AddRow(d, 49, 2025, "TR", "The Ranger", "Wyoming", 500, 490, 0, 450, 50, 10, "AllSub.csv", day("2025-12-08")).
			AddRow(d, 49, 2025, "LJ", nil, "Wyoming", 100, 100, 0, 100, 0, 0, nil, nil))

	eds, err := db.Editions(context.Background(), d, "Wyoming")
	if err != nil {
		t.Fatalf("Editions() error = %v", err)
	}
	if len(eds) != 2 || eds[0].PaperName != "The Ranger" || eds[1].PaperName != "" || !eds[1].SourceDate.IsZero() {
		t.Errorf("Editions() = %+v", eds)
	}
}

func TestLatestPaperSnapshot_None(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE paper_code = ? ORDER BY snapshot_date DESC LIMIT 1")).
		WithArgs("XX").
		WillReturnRows(sqlmock.NewRows(snapshotRowColumns))

	s, err := db.LatestPaperSnapshot(context.Background(), "XX")
	if err != nil || s != nil {
		t.Errorf("LatestPaperSnapshot() = %+v, %v, want nil, nil", s, err)
	}
}

func TestUnitPapers(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY paper_code ORDER BY paper_code")).
		WithArgs("Wyoming").
		WillReturnRows(sqlmock.NewRows([]string{"paper_code", "paper_name"}).AddRow("LJ", "The Lander Journal").AddRow("TR", nil))

	papers, err := db.UnitPapers(context.Background(), "Wyoming")
	if err != nil {
		t.Fatalf("UnitPapers() error = %v", err)
	}
	if len(papers) != 2 || papers[0].BusinessUnit != "Wyoming" || papers[1].Name != "" {
		t.Errorf("UnitPapers() = %+v", papers)
	}
}
