// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/tomtom215/circulation/internal/archive"
	"github.com/tomtom215/circulation/internal/cache"
	"github.com/tomtom215/circulation/internal/config"
	"github.com/tomtom215/circulation/internal/events"
	"github.com/tomtom215/circulation/internal/inbox"
	"github.com/tomtom215/circulation/internal/ingest"
	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/snapshot"
)

// initEvents builds the upload event bus. When events are disabled both
// results are nil and ingestion publishes nothing.
func initEvents(cfg config.EventsConfig, c cache.Cache) (*events.Bus, ingest.Publisher, error) {
	if !cfg.Enabled {
		logging.Info().Msg("Upload events disabled (EVENTS_ENABLED=false)")
		return nil, nil, nil
	}
	bus, err := events.NewBus(cfg, logging.NewWatermillAdapter())
	if err != nil {
		return nil, nil, err
	}
	bus.AddHandler(events.NewCacheInvalidator(c))
	bus.AddHandler(events.NewNotificationLog(nil))
	logging.Info().Msg("Upload event bus initialized")
	return bus, bus, nil
}

// initArchive returns nil when archiving is disabled. The nil check keeps
// a nil archive.Store from becoming a non-nil ingest.Archiver.
func initArchive(ctx context.Context, cfg config.ArchiveConfig) (ingest.Archiver, error) {
	store, err := archive.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize archive: %w", err)
	}
	if store == nil {
		logging.Info().Msg("Raw file archive disabled")
		return nil, nil
	}
	logging.Info().Str("backend", store.Backend()).Msg("Raw file archive enabled")
	return store, nil
}

func newSubscriberParser(cfg *config.Config) (*ingest.SubscriberParser, error) {
	loc, err := cfg.Snapshot.Location()
	if err != nil {
		return nil, fmt.Errorf("load snapshot timezone: %w", err)
	}
	minDate, err := cfg.Ingest.MinDate()
	if err != nil {
		return nil, fmt.Errorf("parse minimum snapshot date: %w", err)
	}
	resolver := snapshot.NewResolver(cfg.Snapshot.MondayCutoffHour)
	return ingest.NewSubscriberParser(cfg.PaperCatalog(), resolver, minDate, loc), nil
}

// initInbox returns a nil poller when the inbox is disabled. The ledger is
// BadgerDB when a path is configured and in-memory otherwise.
func initInbox(cfg config.InboxConfig, processor inbox.Processor) (*inbox.Poller, io.Closer, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	var ledger inbox.Ledger = inbox.NewMemoryLedger()
	if cfg.LedgerPath != "" {
		bl, err := inbox.OpenBadgerLedger(cfg.LedgerPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open inbox ledger: %w", err)
		}
		ledger = bl
	} else {
		logging.Warn().Msg("INBOX_LEDGER_PATH not set; processed inbox files are forgotten on restart")
	}

	poller, err := inbox.NewPoller(cfg, processor, ledger)
	if err != nil {
		_ = ledger.Close()
		return nil, nil, err
	}
	logging.Info().Str("dir", cfg.Dir).Dur("interval", cfg.PollInterval).Msg("Inbox enabled")
	return poller, ledger, nil
}

func closeCache(c cache.Cache) {
	closer, ok := c.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing cache")
	}
}

func logSecurityWarnings(cfg *config.Config) {
	switch cfg.Security.AuthMode {
	case "none":
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  Uploads and subscriber contact data are publicly accessible.")
		logging.Warn().Msg("  Use AUTH_MODE=jwt or AUTH_MODE=basic outside development.")
		logging.Warn().Msg("============================================================")
	case "basic":
		logging.Warn().Msg("Basic Auth transmits credentials with each request. Use HTTPS in production!")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin while authentication is enabled. Set CORS_ORIGINS to specific origins.")
	}
}
