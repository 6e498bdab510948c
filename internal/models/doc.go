// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

// Package models defines the records shared by ingestion, storage and
// analytics: daily snapshots and per-subscriber detail, vacations,
// renewal events, rates and the raw upload ledger.
package models
