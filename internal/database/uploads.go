// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

// ErrUploadNotFound is returned when an upload id has no ledger row.
var ErrUploadNotFound = errors.New("upload not found")

var uploadColumns = []string{
	"filename", "file_type", "file_size", "file_hash", "snapshot_date", "row_count", "subscriber_count",
	"processing_status", "processing_errors", "uploaded_by", "ip_address", "user_agent", "archive_key",
	"uploaded_at",
}

// RecordUpload inserts a pending ledger row and returns its id.
func (db *DB) RecordUpload(ctx context.Context, u *models.RawUpload) (int64, error) {
	status := u.Status
	if status == "" {
		status = models.UploadPending
	}
	uploadedAt := u.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = db.now()
	}
	args := []interface{}{
		u.Filename, u.FileType, u.FileSize, u.FileHash, nullDate(u.SnapshotDate), u.RowCount, u.SubscriberCount,
		status, nullString(u.ProcessingErrors), nullString(u.UploadedBy), nullString(u.IPAddress),
		nullString(u.UserAgent), nullString(u.ArchiveKey), uploadedAt.UTC(),
	}
	q := insertSQL("raw_uploads", uploadColumns, 1)

	var id int64
	err := db.withTx(ctx, "record_upload", func(tx *sql.Tx) error {
		if db.dialect == DialectMySQL {
			res, err := db.exec(ctx, tx, q, args...)
			if err != nil {
				return err
			}
			id, err = res.LastInsertId()
			return err
		}
		return db.queryRow(ctx, tx, q+" RETURNING id", args...).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	u.ID = id
	u.Status = status
	u.UploadedAt = uploadedAt
	return id, nil
}

// CompleteUpload marks an upload completed with its final counts.
func (db *DB) CompleteUpload(ctx context.Context, id int64, c models.UploadCompletion) error {
	return db.finishUpload(ctx, "complete_upload", id,
		`UPDATE raw_uploads SET processing_status = ?, snapshot_date = ?, row_count = ?, subscriber_count = ?,
		archive_key = ?, processed_at = ? WHERE id = ?`,
		models.UploadCompleted, nullDate(c.SnapshotDate), c.RowCount, c.SubscriberCount,
		nullString(c.ArchiveKey), db.now().UTC(), id)
}

// FailUpload marks an upload failed with the error message.
func (db *DB) FailUpload(ctx context.Context, id int64, message string) error {
	return db.finishUpload(ctx, "fail_upload", id,
		`UPDATE raw_uploads SET processing_status = ?, processing_errors = ?, processed_at = ? WHERE id = ?`,
		models.UploadFailed, message, db.now().UTC(), id)
}

func (db *DB) finishUpload(ctx context.Context, op string, id int64, q string, args ...interface{}) error {
	return db.withTx(ctx, op, func(tx *sql.Tx) error {
		res, err := db.exec(ctx, tx, q, args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("upload %d: %w", id, ErrUploadNotFound)
		}
		return nil
	})
}

// RecentUploads lists ledger rows, newest first.
func (db *DB) RecentUploads(ctx context.Context, limit int) ([]models.RawUpload, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	ctx, cancel := db.readContext(ctx)
	defer cancel()

	rows, err := db.query(ctx, db.conn, `SELECT id, filename, file_type, file_size, file_hash, snapshot_date,
		row_count, subscriber_count, processing_status, processing_errors, uploaded_by, ip_address,
		user_agent, archive_key, uploaded_at, processed_at
		FROM raw_uploads ORDER BY uploaded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, persistErr("recent uploads", err)
	}
	defer rows.Close()

	var out []models.RawUpload
	for rows.Next() {
		var u models.RawUpload
		var snapshot, processed sql.NullTime
		var errs, by, ip, ua, key sql.NullString
		var uploadedAt time.Time
		if err := rows.Scan(&u.ID, &u.Filename, &u.FileType, &u.FileSize, &u.FileHash, &snapshot,
			&u.RowCount, &u.SubscriberCount, &u.Status, &errs, &by, &ip, &ua, &key,
			&uploadedAt, &processed); err != nil {
			return nil, persistErr("recent uploads", err)
		}
		u.SnapshotDate = timePtr(snapshot)
		u.ProcessedAt = instantPtr(processed)
		u.UploadedAt = uploadedAt.UTC()
		u.ProcessingErrors = errs.String
		u.UploadedBy = by.String
		u.IPAddress = ip.String
		u.UserAgent = ua.String
		u.ArchiveKey = key.String
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("recent uploads", err)
	}
	return out, nil
}
