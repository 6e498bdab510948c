// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/circulation/internal/analytics"
	"github.com/tomtom215/circulation/internal/api"
	"github.com/tomtom215/circulation/internal/auth"
	"github.com/tomtom215/circulation/internal/cache"
	"github.com/tomtom215/circulation/internal/config"
	"github.com/tomtom215/circulation/internal/database"
	"github.com/tomtom215/circulation/internal/ingest"
	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/supervisor"
	"github.com/tomtom215/circulation/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("db_driver", cfg.Database.Driver).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("cache", cfg.Cache.Backend).
		Str("archive", cfg.Archive.Backend).
		Bool("inbox", cfg.Inbox.Enabled).
		Msg("Starting Circulation")
	logSecurityWarnings(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Circulation stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.New(&cfg.Database, cfg.Analytics.ExcludedPapers)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Str("driver", string(db.Dialect())).Msg("Database initialized")

	responseCache, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache(responseCache)

	bus, publisher, err := initEvents(cfg.Events, responseCache)
	if err != nil {
		return err
	}
	if bus != nil {
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
	}

	archiver, err := initArchive(ctx, cfg.Archive)
	if err != nil {
		return err
	}

	parser, err := newSubscriberParser(cfg)
	if err != nil {
		return err
	}
	ingester := ingest.NewService(db, parser, archiver, publisher)

	authenticator, err := auth.NewAuthenticator(&cfg.Security)
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Deps{
		Config:        cfg,
		Store:         db,
		Ingester:      ingester,
		Analytics:     analytics.NewService(db),
		Cache:         responseCache,
		Auth:          authenticator,
		Version:       version,
		FlushOnUpload: bus == nil,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(cfg, handler).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
	if bus != nil {
		tree.AddMessagingService(services.NewEventsService(bus))
	}

	poller, ledger, err := initInbox(cfg.Inbox, ingester)
	if err != nil {
		return err
	}
	if poller != nil {
		defer func() {
			if err := ledger.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing inbox ledger")
			}
		}()
		tree.AddIngestService(poller)
	}

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
