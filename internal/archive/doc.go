// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

// Package archive keeps the raw bytes of every uploaded report.
//
// Backends:
//   - file: a directory tree on local disk
//   - s3: any S3 compatible object store, behind a circuit breaker so an
//     unreachable bucket fails fast instead of stalling every upload
//
// Keys are produced by ingest.ArchiveKey and are slash separated. Archive
// failures are reported to the caller, which logs them; they never fail the
// ingestion run.
package archive
