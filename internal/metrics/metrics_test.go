// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("UPSERT", "test_table"))

	RecordDBQuery("UPSERT", "test_table", 10*time.Millisecond, nil)
	RecordDBQuery("UPSERT", "test_table", 20*time.Millisecond, errors.New("constraint violation"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("UPSERT", "test_table"))
	if after-before != 1 {
		t.Errorf("error count delta = %v, want 1", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	counter := APIRequestsTotal.WithLabelValues("GET", "/api/v1/test-endpoint", "200")
	before := testutil.ToFloat64(counter)

	RecordAPIRequest("GET", "/api/v1/test-endpoint", "200", 15*time.Millisecond)

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("request count delta = %v, want 1", got)
	}
}

func TestRecordIngest(t *testing.T) {
	tests := []struct {
		name       string
		fileType   string
		imported   int
		reasons    map[string]int
		err        error
		wantStatus string
	}{
		{
			name:       "completed run",
			fileType:   "test_completed",
			imported:   42,
			reasons:    map[string]int{"missing_field": 3},
			wantStatus: "completed",
		},
		{
			name:       "failed run",
			fileType:   "test_failed",
			err:        errors.New("boom"),
			wantStatus: "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordIngest(tt.fileType, time.Second, tt.imported, tt.reasons, tt.err)

			if got := testutil.ToFloat64(IngestRuns.WithLabelValues(tt.fileType, tt.wantStatus)); got != 1 {
				t.Errorf("runs{%s} = %v, want 1", tt.wantStatus, got)
			}
			if got := testutil.ToFloat64(IngestRowsImported.WithLabelValues(tt.fileType)); got != float64(tt.imported) {
				t.Errorf("rows imported = %v, want %d", got, tt.imported)
			}
			for reason, n := range tt.reasons {
				if got := testutil.ToFloat64(IngestRowsSkipped.WithLabelValues(tt.fileType, reason)); got != float64(n) {
					t.Errorf("rows skipped{%s} = %v, want %d", reason, got, n)
				}
			}
		})
	}
}

func TestRecordCacheLookup(t *testing.T) {
	RecordCacheLookup("test_backend", true)
	RecordCacheLookup("test_backend", true)
	RecordCacheLookup("test_backend", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("test_backend")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("test_backend")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestRecordArchive(t *testing.T) {
	RecordArchive("test_archive", nil)
	RecordArchive("test_archive", errors.New("unreachable"))

	if got := testutil.ToFloat64(ArchiveOperations.WithLabelValues("test_archive", "success")); got != 1 {
		t.Errorf("success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ArchiveOperations.WithLabelValues("test_archive", "failure")); got != 1 {
		t.Errorf("failure = %v, want 1", got)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordCacheLookup("test_concurrent", true)
			RecordIngest("test_concurrent", time.Millisecond, 1, nil, nil)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("test_concurrent")); got != 20 {
		t.Errorf("hits = %v, want 20", got)
	}
	if got := testutil.ToFloat64(IngestRuns.WithLabelValues("test_concurrent", "completed")); got != 20 {
		t.Errorf("runs = %v, want 20", got)
	}
}
