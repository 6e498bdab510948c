// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

// Package logging provides the zerolog-based structured logger used across
// the service.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//
//	logging.Info().Str("file", name).Int("rows", n).Msg("Report imported")
//	logging.Err(err).Msg("Upload failed")
//
//	// Request and upload IDs from context
//	logging.Ctx(ctx).Info().Msg("Processing upload")
//
// # Adapters
//
// NewSlogLogger returns an *slog.Logger writing through zerolog. It feeds
// sutureslog for the supervisor tree and watermill.NewSlogLogger for the
// upload event router, so every library logs in one format.
//
// Always terminate event chains with Msg or Send; an unterminated chain
// emits nothing.
package logging
