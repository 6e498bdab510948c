// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package supervisor runs the long-lived parts of the server under a
suture supervisor tree.

The tree has one child supervisor per layer:

	circulation (root)
	├── ingest-layer     inbox directory poller
	├── messaging-layer  watermill upload event router
	└── api-layer        HTTP server

Each layer counts its own failures. A crashing inbox poller is restarted
with backoff inside ingest-layer while the HTTP server keeps serving.

# Usage

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.Addr(), 10*time.Second))
	tree.AddMessagingService(services.NewEventsService(bus))
	tree.AddIngestService(poller)

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

Zero fields in TreeConfig fall back to suture's defaults: 5 failures, 30s
decay, 15s backoff and a 10s per-service shutdown timeout.

# Service contract

Services implement suture.Service. Returning nil or an error causes a
restart; wrapping suture.ErrDoNotRestart removes the service from its
supervisor. Services must return promptly once their context is canceled.

The database pool is not supervised. It is opened before the tree starts
and closed after Serve returns.
*/
package supervisor
