// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package cache holds encoded analytics API responses.

Three backends share the Cache interface:
  - Memory: a process-local TTL map, the default
  - Redis: shared between API replicas through go-redis; keys live under a
    configurable prefix so a flush never touches foreign keys
  - Nop: caching disabled

Entries are flushed as a whole when an upload completes, since any upload
can change every analytics answer. Keys come from GenerateKey, which hashes
the request parameters.

Backend errors never fail a request: a Redis outage is logged and treated
as a miss.
*/
package cache
