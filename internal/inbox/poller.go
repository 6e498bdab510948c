// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package inbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/circulation/internal/config"
	"github.com/tomtom215/circulation/internal/ingest"
	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/metrics"
)

// Subdirectories of the inbox.
const (
	ProcessingDir = "processing"
	CompletedDir  = "completed"
	FailedDir     = "failed"
)

// Outcomes, also used as metric labels.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeUnknown   = "unknown"
)

// settleTime is how long a file must be unmodified before it is picked up.
const settleTime = 2 * time.Second

// Uploader identifies inbox imports in the upload ledger.
const Uploader = "inbox"

// Processor ingests one report.
type Processor interface {
	Process(ctx context.Context, up ingest.Upload) (*ingest.Result, error)
}

// FileResult is the outcome for one inbox file.
type FileResult struct {
	Filename string
	FileType string
	Outcome  string
	UploadID int64
	Err      error
}

// Poller watches an inbox directory.
type Poller struct {
	dir       string
	interval  time.Duration
	processor Processor
	ledger    Ledger
	patterns  []ingest.FilePattern
	now       func() time.Time
	log       zerolog.Logger
}

// NewPoller creates the inbox subdirectories and returns a poller.
func NewPoller(cfg config.InboxConfig, processor Processor, ledger Ledger) (*Poller, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("inbox directory is not set")
	}
	for _, sub := range []string{"", ProcessingDir, CompletedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(cfg.Dir, sub), 0o750); err != nil {
			return nil, fmt.Errorf("create inbox directory: %w", err)
		}
	}
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		dir:       cfg.Dir,
		interval:  interval,
		processor: processor,
		ledger:    ledger,
		patterns:  ingest.DefaultPatterns,
		now:       time.Now,
		log:       logging.WithComponent("inbox"),
	}, nil
}

// Serve scans once immediately and then on every tick until ctx is done.
func (p *Poller) Serve(ctx context.Context) error {
	p.log.Info().Str("dir", p.dir).Dur("interval", p.interval).Msg("Inbox poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if _, err := p.Scan(ctx); err != nil && ctx.Err() == nil {
			p.log.Error().Err(err).Msg("Inbox scan failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) String() string { return "inbox-poller" }

// Scan handles every ready file in the inbox, oldest name first.
func (p *Poller) Scan(ctx context.Context) ([]FileResult, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var results []FileResult
	for _, e := range entries {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if p.now().Sub(info.ModTime()) < settleTime {
			continue
		}
		res := p.handle(ctx, e.Name())
		metrics.InboxFiles.WithLabelValues(res.Outcome).Inc()
		results = append(results, res)
	}
	return results, nil
}

func (p *Poller) handle(ctx context.Context, name string) FileResult {
	res := FileResult{Filename: name}
	log := p.log.With().Str("file", name).Logger()

	fileType, err := ingest.DetectFileType(name, p.patterns)
	if err != nil {
		res.Outcome, res.Err = OutcomeUnknown, err
		log.Warn().Err(err).Msg("Unrecognized inbox file")
		p.moveOrLog(log, filepath.Join(p.dir, name), FailedDir, name)
		return res
	}
	res.FileType = fileType

	processing := filepath.Join(p.dir, ProcessingDir, name)
	if err := os.Rename(filepath.Join(p.dir, name), processing); err != nil {
		res.Outcome, res.Err = OutcomeFailed, fmt.Errorf("claim file: %w", err)
		log.Error().Err(err).Msg("Could not move inbox file to processing")
		return res
	}

	data, err := os.ReadFile(processing)
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, fmt.Errorf("read file: %w", err)
		p.moveOrLog(log, processing, FailedDir, name)
		return res
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	prev, err := p.ledger.Lookup(hash)
	if err != nil {
		log.Warn().Err(err).Msg("Inbox ledger lookup failed")
	}
	if prev != nil {
		res.Outcome, res.UploadID = OutcomeDuplicate, prev.UploadID
		log.Info().Int64("upload_id", prev.UploadID).Time("first_seen", prev.ProcessedAt).
			Msg("Inbox file already imported")
		p.moveOrLog(log, processing, CompletedDir, name)
		return res
	}

	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
	result, err := p.processor.Process(ctx, ingest.Upload{
		Filename:   name,
		FileType:   fileType,
		Data:       data,
		UploadedBy: Uploader,
		ReceivedAt: p.now(),
	})
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, err
		log.Error().Err(err).Msg("Inbox import failed")
		p.moveOrLog(log, processing, FailedDir, name)
		return res
	}

	res.Outcome, res.UploadID = OutcomeCompleted, result.UploadID
	if err := p.ledger.Mark(hash, Record{
		Filename:    name,
		FileType:    fileType,
		UploadID:    result.UploadID,
		ProcessedAt: p.now(),
	}); err != nil {
		log.Warn().Err(err).Msg("Inbox ledger write failed")
	}
	p.moveOrLog(log, processing, CompletedDir, name)
	return res
}

func (p *Poller) moveOrLog(log zerolog.Logger, from, sub, name string) {
	if err := p.move(from, sub, name); err != nil {
		log.Error().Err(err).Str("to", sub).Msg("Could not move inbox file")
	}
}

// move renames from into sub with a timestamped name.
func (p *Poller) move(from, sub, name string) error {
	stamped := p.now().UTC().Format("20060102T150405") + "_" + name
	to := filepath.Join(p.dir, sub, stamped)
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("%s: %w", to, os.ErrExist)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(from, to)
}
