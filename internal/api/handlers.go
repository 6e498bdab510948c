// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"context"
	"time"

	"github.com/tomtom215/circulation/internal/analytics"
	"github.com/tomtom215/circulation/internal/auth"
	"github.com/tomtom215/circulation/internal/cache"
	"github.com/tomtom215/circulation/internal/config"
	"github.com/tomtom215/circulation/internal/ingest"
	"github.com/tomtom215/circulation/internal/models"
)

// Ingester imports one uploaded report.
type Ingester interface {
	Process(ctx context.Context, u ingest.Upload) (*ingest.Result, error)
}

// Analytics answers the dashboard queries.
type Analytics interface {
	Overview(ctx context.Context, req analytics.OverviewRequest) (*analytics.Overview, error)
	BusinessUnitDetail(ctx context.Context, unit string, date *time.Time) (*analytics.UnitDetail, error)
	DetailPanel(ctx context.Context, unit string, date time.Time) (*analytics.DetailPanel, error)
	Subscribers(ctx context.Context, q analytics.MetricQuery, date time.Time) (*analytics.SubscriberList, error)
	Trend(ctx context.Context, q analytics.MetricQuery, timeRange string, end time.Time) (*analytics.MetricTrend, error)
	Rates(ctx context.Context) (*analytics.RatesOverview, error)
	Revenue(ctx context.Context, date *time.Time) (*analytics.RevenueReport, error)
	DataRange(ctx context.Context) (models.DataRange, error)
	Paper(ctx context.Context, code string) (*models.DailySnapshot, error)
}

// Store is the part of the database the handlers use directly.
type Store interface {
	Ping(ctx context.Context) error
	RecentUploads(ctx context.Context, limit int) ([]models.RawUpload, error)
	SetRateFlag(ctx context.Context, flag models.RateFlag) error
}

// Handler serves the API endpoints.
type Handler struct {
	cfg       *config.Config
	store     Store
	ingester  Ingester
	analytics Analytics
	cache     cache.Cache
	auth      *auth.Authenticator
	version   string
	startTime time.Time

	flushOnUpload bool
}

// Deps are the collaborators of a Handler. Cache may be nil.
type Deps struct {
	Config    *config.Config
	Store     Store
	Ingester  Ingester
	Analytics Analytics
	Cache     cache.Cache
	Auth      *auth.Authenticator
	Version   string

	// FlushOnUpload flushes the cache after each successful upload. Set it
	// when no event bus invalidates the cache.
	FlushOnUpload bool
}

// NewHandler creates the API handler.
func NewHandler(d Deps) *Handler {
	c := d.Cache
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{
		cfg:       d.Config,
		store:     d.Store,
		ingester:  d.Ingester,
		analytics: d.Analytics,
		cache:     c,
		auth:      d.Auth,
		version:   d.Version,
		startTime: time.Now(),

		flushOnUpload: d.FlushOnUpload,
	}
}
