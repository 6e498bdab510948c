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

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tomtom215/circulation/internal/models"
)

func TestRecordUpload(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		expect  func(mock sqlmock.Sqlmock)
		wantID  int64
	}{
		{
			name:    "returning id",
			dialect: DialectDuckDB,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO raw_uploads") + ".*" + regexp.QuoteMeta("RETURNING id")).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
			},
			wantID: 7,
		},
		{
			name:    "mysql last insert id",
			dialect: DialectMySQL,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO raw_uploads")).
					WillReturnResult(sqlmock.NewResult(9, 1))
			},
			wantID: 9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t, tt.dialect)
			mock.ExpectBegin()
			tt.expect(mock)
			mock.ExpectCommit()

			u := &models.RawUpload{Filename: "rates.csv", FileType: models.FileTypeRates, FileHash: "abc"}
			id, err := db.RecordUpload(context.Background(), u)
			if err != nil {
				t.Fatalf("RecordUpload() error = %v", err)
			}
			if id != tt.wantID || u.ID != tt.wantID {
				t.Errorf("RecordUpload() = %d (u.ID %d), want %d", id, u.ID, tt.wantID)
			}
			if u.Status != models.UploadPending {
				t.Errorf("Status = %q, want %q", u.Status, models.UploadPending)
			}
			if !u.UploadedAt.Equal(fixedNow) {
				t.Errorf("UploadedAt = %v, want %v", u.UploadedAt, fixedNow)
			}
		})
	}
}

func TestCompleteUpload(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	snap := day("2025-12-07")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE raw_uploads SET processing_status = ?, snapshot_date = ?")).
		WithArgs(models.UploadCompleted, snap, 10, 9, "allsubscriber/2025/12/a.csv", fixedNow, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.CompleteUpload(context.Background(), 4, models.UploadCompletion{
		SnapshotDate: &snap, RowCount: 10, SubscriberCount: 9, ArchiveKey: "allsubscriber/2025/12/a.csv",
	})
	if err != nil {
		t.Fatalf("CompleteUpload() error = %v", err)
	}
}

func TestFailUpload_NotFound(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("processing_errors = ?")).
		WithArgs(models.UploadFailed, "bad header", fixedNow, int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := db.FailUpload(context.Background(), 404, "bad header")
	if !errors.Is(err, ErrUploadNotFound) {
		t.Errorf("FailUpload() error = %v, want ErrUploadNotFound", err)
	}
}

func TestRecentUploads(t *testing.T) {
	db, mock := newMockDB(t, DialectDuckDB)
	snap := day("2025-12-07")

	cols := []string{"id", "filename", "file_type", "file_size", "file_hash", "snapshot_date", "row_count",
		"subscriber_count", "processing_status", "processing_errors", "uploaded_by", "ip_address",
		"user_agent", "archive_key", "uploaded_at", "processed_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM raw_uploads ORDER BY uploaded_at DESC, id DESC LIMIT ?")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, "AllSub.csv", models.FileTypeSubscribers, 100, "h2", snap, 10, 9, models.UploadCompleted,
				nil, "operator", "10.0.0.1", "curl", "k", fixedNow, fixedNow).
			AddRow(1, "bad.csv", models.FileTypeVacations, 5, "h1", nil, 0, 0, models.UploadFailed,
				"missing header", nil, nil, nil, nil, fixedNow, nil))

	uploads, err := db.RecentUploads(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentUploads() error = %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("len(uploads) = %d, want 2", len(uploads))
	}
	if uploads[0].SnapshotDate == nil || !uploads[0].SnapshotDate.Equal(snap) || uploads[0].UploadedBy != "operator" {
		t.Errorf("uploads[0] = %+v", uploads[0])
	}
	if uploads[1].SnapshotDate != nil || uploads[1].ProcessedAt != nil || uploads[1].ProcessingErrors != "missing header" {
		t.Errorf("uploads[1] = %+v", uploads[1])
	}
}
