// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

// Package events carries upload outcome events from ingestion to the
// components that react to new data.
//
// The bus is an in-process Watermill GoChannel pub/sub with a Watermill
// router in front of the subscribers. The router adds panic recovery and
// retry with exponential backoff to every handler. Messages are JSON
// encoded models.UploadEvent values on the "uploads" topic, with the
// originating request ID in the message metadata.
//
// Two handlers are provided:
//   - CacheInvalidator flushes the analytics response cache after a
//     completed upload
//   - NotificationLog writes one structured log line per upload outcome
package events
