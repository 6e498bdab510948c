// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/metrics"
	"github.com/tomtom215/circulation/internal/models"
)

// Store persists parsed reports and the raw upload ledger.
type Store interface {
	RecordUpload(ctx context.Context, upload *models.RawUpload) (int64, error)
	CompleteUpload(ctx context.Context, id int64, c models.UploadCompletion) error
	FailUpload(ctx context.Context, id int64, message string) error

	WriteSubscriberBatch(ctx context.Context, batch models.SnapshotBatch) (models.WriteResult, error)
	ApplyVacations(ctx context.Context, updates []models.VacationUpdate) (models.VacationResult, error)
	InsertRenewals(ctx context.Context, events []models.RenewalEvent, summaries []models.ChurnSummary) (models.RenewalWriteResult, error)
	UpsertRates(ctx context.Context, rates []models.RateRecord) (models.RateWriteResult, error)
}

// Archiver keeps a copy of the raw file under key.
type Archiver interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Publisher announces finished ingestion runs.
type Publisher interface {
	PublishUpload(ctx context.Context, event models.UploadEvent) error
}

// Upload is one file submitted for ingestion, with the request metadata
// recorded in the ledger.
type Upload struct {
	Filename   string
	FileType   string
	Data       []byte
	UploadedBy string
	IPAddress  string
	UserAgent  string
	ReceivedAt time.Time
}

// Result is the operator-facing summary of an ingestion run.
type Result struct {
	UploadID       int64          `json:"upload_id"`
	FileType       string         `json:"file_type"`
	Filename       string         `json:"filename"`
	DateRange      string         `json:"date_range"`
	NewRecords     int            `json:"new_records"`
	UpdatedRecords int            `json:"updated_records"`
	TotalProcessed int            `json:"total_processed"`
	ProcessingTime string         `json:"processing_time"`
	Skipped        int            `json:"skipped"`
	SkipReasons    map[string]int `json:"skip_reasons"`
	SampleErrors   []string       `json:"sample_errors,omitempty"`
	ArchiveKey     string         `json:"archive_key,omitempty"`
	Details        interface{}    `json:"details,omitempty"`
}

// SubscriberDetails is the report-specific part of a subscriber import.
type SubscriberDetails struct {
	SnapshotDate     string        `json:"snapshot_date"`
	NewSnapshots     int           `json:"new_snapshots"`
	UpdatedSnapshots int           `json:"updated_snapshots"`
	BusinessUnits    []UnitSummary `json:"business_units"`
}

// VacationDetails is the report-specific part of a vacation import.
type VacationDetails struct {
	ByPaper          map[string]int `json:"by_paper"`
	SnapshotsUpdated int            `json:"snapshots_updated"`
}

// RenewalDetails is the report-specific part of a renewal import.
type RenewalDetails struct {
	EventsImported    int            `json:"events_imported"`
	DuplicatesSkipped int            `json:"duplicates_skipped"`
	SummariesImported int            `json:"summaries_imported"`
	ByPublication     map[string]int `json:"by_publication"`
	ByType            map[string]int `json:"by_type"`
}

// RatesDetails is the report-specific part of a rates import.
type RatesDetails struct {
	MarketRates int            `json:"market_rates"`
	ByPaper     map[string]int `json:"by_paper"`
}

// Service runs ingestion: ledger entry, parse, write, archive, publish.
// Runs are serialized; a second concurrent call waits.
type Service struct {
	store       Store
	subscribers *SubscriberParser
	archiver    Archiver
	publisher   Publisher
	now         func() time.Time

	mu sync.Mutex
}

// NewService creates an ingestion service. archiver and publisher may be
// nil.
func NewService(store Store, subscribers *SubscriberParser, archiver Archiver, publisher Publisher) *Service {
	return &Service{
		store:       store,
		subscribers: subscribers,
		archiver:    archiver,
		publisher:   publisher,
		now:         time.Now,
	}
}

// outcome carries what a per-report run produced.
type outcome struct {
	result     *Result
	completion models.UploadCompletion
	dates      []time.Time
	stats      ImportStats
}

// Process ingests one upload. FileType may be empty, in which case it is
// detected from the filename.
func (s *Service) Process(ctx context.Context, up Upload) (*Result, error) {
	if up.FileType == "" {
		ft, err := DetectFileType(up.Filename, nil)
		if err != nil {
			return nil, err
		}
		up.FileType = ft
	}
	if !ValidFileType(up.FileType) {
		return nil, fmt.Errorf("%s: %w", up.FileType, ErrUnknownReport)
	}
	if up.ReceivedAt.IsZero() {
		up.ReceivedAt = s.now()
	}
	up.Filename = filepath.Base(up.Filename)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	sum := sha256.Sum256(up.Data)
	hash := hex.EncodeToString(sum[:])

	id, err := s.store.RecordUpload(ctx, &models.RawUpload{
		Filename:   up.Filename,
		FileType:   up.FileType,
		FileSize:   int64(len(up.Data)),
		FileHash:   hash,
		Status:     models.UploadPending,
		UploadedBy: up.UploadedBy,
		IPAddress:  up.IPAddress,
		UserAgent:  up.UserAgent,
		UploadedAt: up.ReceivedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("record upload: %w", err)
	}
	ctx = logging.ContextWithUploadID(ctx, id)

	out, err := s.run(ctx, id, up)
	elapsed := s.now().Sub(start)
	if err != nil {
		metrics.RecordIngest(up.FileType, elapsed, 0, nil, err)
		s.fail(ctx, id, up, err)
		return nil, err
	}
	metrics.RecordIngest(up.FileType, elapsed, out.stats.Imported, out.stats.SkipReasons, nil)

	res := out.result
	res.UploadID = id
	res.FileType = up.FileType
	res.Filename = up.Filename
	res.ProcessingTime = fmt.Sprintf("%.2fs", elapsed.Seconds())
	res.Skipped = out.stats.Skipped
	res.SkipReasons = out.stats.SkipReasons
	res.SampleErrors = out.stats.Samples

	if s.archiver != nil {
		key := ArchiveKey(up.FileType, up.ReceivedAt, hash, up.Filename)
		if err := s.archiver.Put(ctx, key, up.Data); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Raw report archive failed")
		} else {
			res.ArchiveKey = key
			out.completion.ArchiveKey = key
		}
	}

	if err := s.store.CompleteUpload(ctx, id, out.completion); err != nil {
		// The data is committed; only the ledger row is stale.
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to mark upload completed")
	}

	logging.Ctx(ctx).Info().
		Str("file", up.Filename).
		Str("file_type", up.FileType).
		Int("new", res.NewRecords).
		Int("updated", res.UpdatedRecords).
		Int("skipped", res.Skipped).
		Dur("elapsed", elapsed).
		Msg("Report imported")

	s.publish(ctx, models.UploadEvent{
		UploadID:      id,
		FileType:      up.FileType,
		Filename:      up.Filename,
		Status:        models.UploadCompleted,
		SnapshotDates: out.dates,
		Rows:          res.TotalProcessed,
		OccurredAt:    s.now(),
	})
	return res, nil
}

func (s *Service) run(ctx context.Context, id int64, up Upload) (*outcome, error) {
	switch up.FileType {
	case models.FileTypeSubscribers:
		return s.runSubscribers(ctx, id, up)
	case models.FileTypeVacations:
		return s.runVacations(ctx, up)
	case models.FileTypeRenewals:
		return s.runRenewals(ctx, up)
	case models.FileTypeRates:
		return s.runRates(ctx, up)
	}
	return nil, fmt.Errorf("%s: %w", up.FileType, ErrUnknownReport)
}

func (s *Service) runSubscribers(ctx context.Context, id int64, up Upload) (*outcome, error) {
	imp, err := s.subscribers.Parse(bytes.NewReader(up.Data), FileMeta{Filename: up.Filename, ReceivedAt: up.ReceivedAt})
	if err != nil {
		return nil, err
	}
	wr, err := s.store.WriteSubscriberBatch(ctx, imp.Batch(id, up.Filename))
	if err != nil {
		return nil, err
	}

	date := imp.SnapshotDate
	return &outcome{
		result: &Result{
			DateRange:      date.Format("2006-01-02"),
			NewRecords:     wr.NewRecords,
			UpdatedRecords: wr.UpdatedRecords,
			TotalProcessed: len(imp.Subscribers),
			Details: SubscriberDetails{
				SnapshotDate:     date.Format("2006-01-02"),
				NewSnapshots:     wr.NewSnapshots,
				UpdatedSnapshots: wr.UpdatedSnapshots,
				BusinessUnits:    imp.ByBusinessUnit(),
			},
		},
		completion: models.UploadCompletion{
			SnapshotDate:    &date,
			RowCount:        imp.Stats.RowsRead,
			SubscriberCount: len(imp.Subscribers),
		},
		dates: []time.Time{date},
		stats: imp.Stats,
	}, nil
}

func (s *Service) runVacations(ctx context.Context, up Upload) (*outcome, error) {
	imp, err := ParseVacations(bytes.NewReader(up.Data))
	if err != nil {
		return nil, err
	}
	vr, err := s.store.ApplyVacations(ctx, imp.Updates)
	if err != nil {
		return nil, err
	}
	for _, key := range vr.NotFound {
		imp.Stats.skip(ReasonNoMatchingRecord, fmt.Errorf("no matching snapshot for %s", key))
		if _, paper, ok := strings.Cut(key, "|"); ok && imp.ByPaper[paper] > 0 {
			imp.ByPaper[paper]--
		}
	}
	imp.Stats.Imported = vr.SubscribersUpdated

	completion := models.UploadCompletion{RowCount: imp.Stats.RowsRead, SubscriberCount: vr.SubscribersUpdated}
	dateRange := ""
	if n := len(vr.SnapshotDates); n > 0 {
		latest := vr.SnapshotDates[n-1]
		completion.SnapshotDate = &latest
		dateRange = latest.Format("2006-01-02")
	}
	return &outcome{
		result: &Result{
			DateRange:      dateRange,
			UpdatedRecords: vr.SubscribersUpdated,
			TotalProcessed: vr.SubscribersUpdated,
			Details: VacationDetails{
				ByPaper:          imp.ByPaper,
				SnapshotsUpdated: vr.SnapshotsUpdated,
			},
		},
		completion: completion,
		dates:      vr.SnapshotDates,
		stats:      imp.Stats,
	}, nil
}

func (s *Service) runRenewals(ctx context.Context, up Upload) (*outcome, error) {
	imp, err := ParseRenewals(bytes.NewReader(up.Data), up.Filename)
	if err != nil {
		return nil, err
	}
	rr, err := s.store.InsertRenewals(ctx, imp.Events, imp.Summaries)
	if err != nil {
		return nil, err
	}

	duplicates := rr.DuplicatesSkipped + imp.DuplicateRows
	completion := models.UploadCompletion{RowCount: imp.Stats.RowsRead, SubscriberCount: rr.EventsImported}
	if !imp.MaxDate.IsZero() {
		latest := imp.MaxDate
		completion.SnapshotDate = &latest
	}

	return &outcome{
		result: &Result{
			DateRange:      imp.DateRange(),
			NewRecords:     rr.EventsImported,
			TotalProcessed: rr.EventsImported + duplicates,
			Details: RenewalDetails{
				EventsImported:    rr.EventsImported,
				DuplicatesSkipped: duplicates,
				SummariesImported: rr.SummariesImported,
				ByPublication:     imp.ByPublication,
				ByType:            imp.ByType,
			},
		},
		completion: completion,
		dates:      summaryDates(imp.Summaries),
		stats:      imp.Stats,
	}, nil
}

func (s *Service) runRates(ctx context.Context, up Upload) (*outcome, error) {
	imp, err := ParseRates(bytes.NewReader(up.Data), s.now())
	if err != nil {
		return nil, err
	}
	wr, err := s.store.UpsertRates(ctx, imp.Rates)
	if err != nil {
		return nil, err
	}
	dateRange := imp.DateRange()
	if dateRange == "" {
		dateRange = s.now().Format("2006-01-02")
	}
	return &outcome{
		result: &Result{
			DateRange:      dateRange,
			NewRecords:     wr.NewRates,
			UpdatedRecords: wr.UpdatedRates,
			TotalProcessed: len(imp.Rates),
			Details: RatesDetails{
				MarketRates: wr.MarketRates,
				ByPaper:     imp.ByPaper,
			},
		},
		completion: models.UploadCompletion{RowCount: imp.Stats.RowsRead},
		stats:      imp.Stats,
	}, nil
}

func (s *Service) fail(ctx context.Context, id int64, up Upload, cause error) {
	logging.Ctx(ctx).Warn().Err(cause).Str("file", up.Filename).Str("file_type", up.FileType).Msg("Report import failed")
	if err := s.store.FailUpload(ctx, id, cause.Error()); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to mark upload failed")
	}
	s.publish(ctx, models.UploadEvent{
		UploadID:   id,
		FileType:   up.FileType,
		Filename:   up.Filename,
		Status:     models.UploadFailed,
		Error:      cause.Error(),
		OccurredAt: s.now(),
	})
}

func (s *Service) publish(ctx context.Context, ev models.UploadEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishUpload(ctx, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish upload event")
	}
}

// ArchiveKey builds the storage key of a raw report:
// <type>/<yyyy>/<mm>/<dd>/<hash prefix>-<filename>.
func ArchiveKey(fileType string, received time.Time, hash, filename string) string {
	prefix := hash
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	return fmt.Sprintf("%s/%s/%s-%s", fileType, received.UTC().Format("2006/01/02"), prefix, filepath.Base(filename))
}

func summaryDates(summaries []models.ChurnSummary) []time.Time {
	seen := make(map[time.Time]struct{})
	var out []time.Time
	for _, s := range summaries {
		if _, ok := seen[s.SnapshotDate]; ok {
			continue
		}
		seen[s.SnapshotDate] = struct{}{}
		out = append(out, s.SnapshotDate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
