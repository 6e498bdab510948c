// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/circulation/config.yaml",
	"/etc/circulation/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
			MaxUploadBytes:  50 << 20,
		},
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/circulation.duckdb",
			MaxMemory:    "1GB",
			Threads:      0,
			MaxOpenConns: 0,
			QueryTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			AuthMode:               "jwt",
			SessionTimeout:         12 * time.Hour,
			RateLimitReqs:          100,
			RateLimitWindow:        time.Minute,
			CORSOrigins:            []string{"*"},
			TrustedProxies:         []string{},
			LoginAttemptsPerMinute: 5,
		},
		Snapshot: SnapshotConfig{
			MondayCutoffHour: 8,
			Timezone:         "UTC",
		},
		Ingest: IngestConfig{
			MinSnapshotDate: "",
		},
		Inbox: InboxConfig{
			Enabled:      false,
			Dir:          "/data/inbox",
			PollInterval: time.Minute,
			LedgerPath:   "",
		},
		Archive: ArchiveConfig{
			Backend: "file",
			Dir:     "/data/raw",
			S3: S3Config{
				Region:  "us-east-1",
				Prefix:  "circulation/raw",
				Timeout: 30 * time.Second,
			},
		},
		Cache: CacheConfig{
			Backend:   "memory",
			TTL:       5 * time.Minute,
			RedisAddr: "127.0.0.1:6379",
			KeyPrefix: "circulation:",
		},
		Analytics: AnalyticsConfig{
			ExcludedPapers: []string{"FN"},
		},
		Events: EventsConfig{
			Enabled:              true,
			BufferSize:           256,
			CloseTimeout:         10 * time.Second,
			RetryCount:           3,
			RetryInitialInterval: 100 * time.Millisecond,
		},
	}
}

// LoadWithKoanf loads configuration in three layers:
//
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DUCKDB_PATH -> database.path
	// SNAPSHOT_MONDAY_CUTOFF_HOUR -> snapshot.monday_cutoff_hour
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Load is an alias for LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"analytics.excluded_papers",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		// An explicitly empty value clears the list, e.g. EXCLUDED_PAPERS="".
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"server_timeout":   "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",
	"max_upload_bytes": "server.max_upload_bytes",

	// Database
	"db_driver":         "database.driver",
	"database_dsn":      "database.dsn",
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"db_max_open_conns": "database.max_open_conns",
	"db_query_timeout":  "database.query_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Security
	"auth_mode":                 "security.auth_mode",
	"jwt_secret":                "security.jwt_secret",
	"session_timeout":           "security.session_timeout",
	"admin_username":            "security.admin_username",
	"admin_password":            "security.admin_password",
	"rate_limit_requests":       "security.rate_limit_reqs",
	"rate_limit_window":         "security.rate_limit_window",
	"disable_rate_limit":        "security.rate_limit_disabled",
	"cors_origins":              "security.cors_origins",
	"trusted_proxies":           "security.trusted_proxies",
	"login_attempts_per_minute": "security.login_attempts_per_minute",

	// Snapshot dating
	"snapshot_monday_cutoff_hour": "snapshot.monday_cutoff_hour",
	"snapshot_timezone":           "snapshot.timezone",
	"tz":                          "snapshot.timezone",

	// Ingest
	"min_snapshot_date": "ingest.min_snapshot_date",

	// Inbox
	"inbox_enabled":       "inbox.enabled",
	"inbox_dir":           "inbox.dir",
	"inbox_poll_interval": "inbox.poll_interval",
	"inbox_ledger_path":   "inbox.ledger_path",

	// Archive
	"archive_backend":              "archive.backend",
	"archive_dir":                  "archive.dir",
	"archive_s3_bucket":            "archive.s3.bucket",
	"archive_s3_region":            "archive.s3.region",
	"archive_s3_prefix":            "archive.s3.prefix",
	"archive_s3_endpoint":          "archive.s3.endpoint",
	"archive_s3_access_key_id":     "archive.s3.access_key_id",
	"archive_s3_secret_access_key": "archive.s3.secret_access_key",
	"archive_s3_use_path_style":    "archive.s3.use_path_style",
	"archive_s3_timeout":           "archive.s3.timeout",

	// Cache
	"cache_backend":  "cache.backend",
	"cache_ttl":      "cache.ttl",
	"redis_addr":     "cache.redis_addr",
	"redis_password": "cache.redis_password",
	"redis_db":       "cache.redis_db",
	"cache_prefix":   "cache.key_prefix",

	// Analytics
	"excluded_papers": "analytics.excluded_papers",

	// Events
	"events_enabled":                "events.enabled",
	"events_buffer_size":            "events.buffer_size",
	"events_close_timeout":          "events.close_timeout",
	"events_retry_count":            "events.retry_count",
	"events_retry_initial_interval": "events.retry_initial_interval",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - ARCHIVE_S3_BUCKET -> archive.s3.bucket
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables never
	// reach the config.
	return ""
}
