// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package models

import "time"

// Upload processing statuses.
const (
	UploadPending   = "pending"
	UploadCompleted = "completed"
	UploadFailed    = "failed"
)

// Report file types.
const (
	FileTypeSubscribers = "allsubscriber"
	FileTypeVacations   = "vacation"
	FileTypeRenewals    = "renewal"
	FileTypeRates       = "rates"
)

// RawUpload is the ledger entry for one ingestion attempt.
type RawUpload struct {
	ID               int64      `json:"upload_id"`
	Filename         string     `json:"filename"`
	FileType         string     `json:"file_type"`
	FileSize         int64      `json:"file_size"`
	FileHash         string     `json:"file_hash"`
	SnapshotDate     *time.Time `json:"snapshot_date,omitempty"`
	RowCount         int        `json:"row_count"`
	SubscriberCount  int        `json:"subscriber_count"`
	Status           string     `json:"processing_status"`
	ProcessingErrors string     `json:"processing_errors,omitempty"`
	UploadedBy       string     `json:"uploaded_by"`
	IPAddress        string     `json:"ip_address,omitempty"`
	UserAgent        string     `json:"user_agent,omitempty"`
	ArchiveKey       string     `json:"archive_key,omitempty"`
	UploadedAt       time.Time  `json:"uploaded_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
}

// UploadCompletion carries the final metadata written to a completed
// upload.
type UploadCompletion struct {
	SnapshotDate    *time.Time
	RowCount        int
	SubscriberCount int
	ArchiveKey      string
}

// UploadEvent announces the outcome of an ingestion run.
type UploadEvent struct {
	UploadID      int64       `json:"upload_id"`
	FileType      string      `json:"file_type"`
	Filename      string      `json:"filename"`
	Status        string      `json:"status"`
	SnapshotDates []time.Time `json:"snapshot_dates,omitempty"`
	Rows          int         `json:"rows"`
	Error         string      `json:"error,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}
