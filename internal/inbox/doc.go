// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package inbox ingests reports dropped into a watched directory.

The poller scans the inbox directory on every tick. Each regular file whose
name matches a known report pattern is moved to processing/, handed to the
ingestion service, then moved to completed/ or failed/. Moved files get a
UTC timestamp prefix so repeated drops of the same export never collide.

A ledger keyed by the SHA-256 of the file content remembers what was
already imported. A file whose content is in the ledger goes straight to
completed/ without touching the database. The ledger lives in BadgerDB
when a path is configured and in memory otherwise.

Files modified in the last few seconds are left alone until the next tick,
since the export tool may still be writing them.
*/
package inbox
