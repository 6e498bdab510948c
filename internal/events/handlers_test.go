// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package events

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/metrics"
	"github.com/tomtom215/circulation/internal/models"
)

type fakeFlusher struct {
	flushes int
	err     error
}

func (f *fakeFlusher) Flush(context.Context) error {
	f.flushes++
	return f.err
}

func TestCacheInvalidator(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		flushErr    error
		wantFlushes int
		wantErr     bool
	}{
		{"completed flushes", models.UploadCompleted, nil, 1, false},
		{"failed is ignored", models.UploadFailed, nil, 0, false},
		{"flush error surfaces", models.UploadCompleted, errors.New("redis down"), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFlusher{err: tt.flushErr}
			inv := NewCacheInvalidator(f)
			before := testutil.ToFloat64(metrics.CacheInvalidations)

			err := inv.HandleUpload(context.Background(), models.UploadEvent{Status: tt.status})
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleUpload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if f.flushes != tt.wantFlushes {
				t.Errorf("flushes = %d, want %d", f.flushes, tt.wantFlushes)
			}
			delta := testutil.ToFloat64(metrics.CacheInvalidations) - before
			wantDelta := 0.0
			if tt.wantFlushes == 1 && !tt.wantErr {
				wantDelta = 1
			}
			if delta != wantDelta {
				t.Errorf("invalidations delta = %v, want %v", delta, wantDelta)
			}
		})
	}
}

func TestNotificationLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewTestLogger(&buf)
	n := NewNotificationLog(&logger)

	ctx := logging.ContextWithRequestID(context.Background(), "req-9")
	err := n.HandleUpload(ctx, models.UploadEvent{
		UploadID:      5,
		FileType:      models.FileTypeVacations,
		Filename:      "SubscribersOnVacation.csv",
		Status:        models.UploadFailed,
		Error:         "missing column",
		SnapshotDates: []time.Time{time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("HandleUpload: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"upload_id":5`,
		`"error":"missing column"`,
		`"snapshot_dates":["2025-12-06"]`,
		`"request_id":"req-9"`,
		`"message":"Upload processed"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}
