// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Security  SecurityConfig  `koanf:"security"`
	Snapshot  SnapshotConfig  `koanf:"snapshot"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Inbox     InboxConfig     `koanf:"inbox"`
	Archive   ArchiveConfig   `koanf:"archive"`
	Cache     CacheConfig     `koanf:"cache"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Events    EventsConfig    `koanf:"events"`

	// Papers is the publication catalog. Empty means models.DefaultPapers.
	Papers []models.Paper `koanf:"papers"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development", "staging", "production"

	// MaxUploadBytes bounds the size of an uploaded report.
	// Default: 50MB
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and tunes the SQL store.
type DatabaseConfig struct {
	// Driver is duckdb, mysql or postgres.
	// Default: duckdb
	Driver string `koanf:"driver"`

	// DSN is the connection string for mysql and postgres.
	DSN string `koanf:"dsn"`

	// Path is the DuckDB database file.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU

	MaxOpenConns int           `koanf:"max_open_conns"` // 0 = use NumCPU
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// SecurityConfig holds authentication and rate limit settings
type SecurityConfig struct {
	// AuthMode is none, basic or jwt.
	AuthMode        string        `koanf:"auth_mode"`
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	AdminUsername   string        `koanf:"admin_username"`
	AdminPassword   string        `koanf:"admin_password"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	// RateLimitDisabled turns off the per-IP API limiter.
	RateLimitDisabled bool     `koanf:"rate_limit_disabled"`
	CORSOrigins       []string `koanf:"cors_origins"`
	TrustedProxies    []string `koanf:"trusted_proxies"`

	// LoginAttemptsPerMinute bounds password guesses per client IP.
	LoginAttemptsPerMinute int `koanf:"login_attempts_per_minute"`
}

// SnapshotConfig controls how upload times map to snapshot dates.
type SnapshotConfig struct {
	// MondayCutoffHour: a Monday upload before this hour belongs to the
	// previous day's week.
	// Default: 8
	MondayCutoffHour int `koanf:"monday_cutoff_hour"`

	// Timezone is the IANA zone of the circulation office.
	// Default: UTC
	Timezone string `koanf:"timezone"`
}

// Location loads the configured zone.
func (s SnapshotConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// IngestConfig holds report ingestion settings
type IngestConfig struct {
	// MinSnapshotDate (YYYY-MM-DD) drops subscriber snapshots older than
	// this date.
	MinSnapshotDate string `koanf:"min_snapshot_date"`
}

// MinDate parses MinSnapshotDate. An empty value returns the zero time.
func (i IngestConfig) MinDate() (time.Time, error) {
	if i.MinSnapshotDate == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", i.MinSnapshotDate)
}

// InboxConfig holds the watched upload directory settings
type InboxConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Dir          string        `koanf:"dir"`
	PollInterval time.Duration `koanf:"poll_interval"`

	// LedgerPath is the BadgerDB directory recording processed files.
	// Empty keeps the ledger in memory.
	LedgerPath string `koanf:"ledger_path"`
}

// ArchiveConfig selects where raw uploads are kept.
type ArchiveConfig struct {
	// Backend is none, file or s3.
	Backend string   `koanf:"backend"`
	Dir     string   `koanf:"dir"`
	S3      S3Config `koanf:"s3"`
}

// S3Config holds the S3 archive settings. Credentials fall back to the
// default AWS chain when empty.
type S3Config struct {
	Bucket          string        `koanf:"bucket"`
	Region          string        `koanf:"region"`
	Prefix          string        `koanf:"prefix"`
	Endpoint        string        `koanf:"endpoint"`
	AccessKeyID     string        `koanf:"access_key_id"`
	SecretAccessKey string        `koanf:"secret_access_key"`
	UsePathStyle    bool          `koanf:"use_path_style"`
	Timeout         time.Duration `koanf:"timeout"`
}

// CacheConfig holds analytics response cache settings
type CacheConfig struct {
	// Backend is memory, redis or none.
	Backend       string        `koanf:"backend"`
	TTL           time.Duration `koanf:"ttl"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	KeyPrefix     string        `koanf:"key_prefix"`
}

// AnalyticsConfig holds analytics query settings
type AnalyticsConfig struct {
	// ExcludedPapers are left out of every analytics query.
	ExcludedPapers []string `koanf:"excluded_papers"`
}

// EventsConfig holds upload event bus settings
type EventsConfig struct {
	Enabled              bool          `koanf:"enabled"`
	BufferSize           int64         `koanf:"buffer_size"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
}

// PaperCatalog builds the catalog from Papers.
func (c *Config) PaperCatalog() *models.PaperCatalog {
	if len(c.Papers) == 0 {
		return models.NewPaperCatalog(models.DefaultPapers())
	}
	return models.NewPaperCatalog(c.Papers)
}
