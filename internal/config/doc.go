// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package config provides centralized configuration management for Circulation.

Configuration is layered with koanf:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, then config.yaml, config.yml,
    /etc/circulation/config.yaml, /etc/circulation/config.yml
 3. Environment variables, mapped explicitly in envMappings

Unmapped environment variables are ignored. Comma-separated values are
split for list settings such as CORS_ORIGINS and EXCLUDED_PAPERS.

# Sections

  - server: listen address, timeouts, upload size limit
  - database: duckdb (default), mysql or postgres
  - logging: zerolog level and format
  - security: AUTH_MODE none, basic or jwt; rate limits; CORS
  - snapshot: Monday cutoff hour and office timezone
  - ingest: minimum snapshot date
  - inbox: watched upload directory and its processed-file ledger
  - archive: raw report storage (none, file, s3)
  - cache: analytics response cache (memory, redis, none)
  - analytics: papers excluded from every query
  - events: upload event bus
  - papers: publication catalog (code, name, business unit)

# Usage

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

Validate runs as part of Load and refuses insecure production settings,
such as AUTH_MODE=none or wildcard CORS with authentication enabled.
*/
package config
