// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import (
	"context"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

// TrendWeeks is the length of the trend window used for comparisons,
// forecasts and anomaly detection.
const TrendWeeks = 12

// SubscriberLimit caps drill-down lists.
const SubscriberLimit = 1000

// Store is the read side of the circulation database. Implementations
// exclude retired papers from every query. A unit of "" means all units.
type Store interface {
	LatestSnapshotDate(ctx context.Context) (time.Time, bool, error)
	DataRange(ctx context.Context) (models.DataRange, error)

	// Totals sums the snapshot rows of date, limited to units when non-empty.
	// The bool is false when no rows match.
	Totals(ctx context.Context, date time.Time, units []string) (models.Totals, bool, error)
	UnitTotals(ctx context.Context, date time.Time) ([]models.UnitTotals, error)
	BusinessUnits(ctx context.Context, date time.Time) ([]string, error)
	Series(ctx context.Context, unit string, from, to time.Time) ([]models.SeriesRow, error)
	PreviousSnapshotDate(ctx context.Context, unit string, before time.Time) (time.Time, bool, error)
	Editions(ctx context.Context, date time.Time, unit string) ([]models.DailySnapshot, error)
	UnitPapers(ctx context.Context, unit string) ([]models.Paper, error)
	LatestPaperSnapshot(ctx context.Context, code string) (*models.DailySnapshot, error)

	// LatestDetailDate is the newest subscriber snapshot of papers on or
	// before onOrBefore.
	LatestDetailDate(ctx context.Context, papers []string, onOrBefore time.Time) (time.Time, bool, error)
	Distribution(ctx context.Context, papers []string, date time.Time, dim models.Dimension) ([]models.CountBucket, error)
	PaidThruCounts(ctx context.Context, papers []string, date, until time.Time) ([]models.DateCount, error)
	Subscribers(ctx context.Context, f models.SubscriberFilter) ([]models.SubscriberContact, error)
	CountSubscribers(ctx context.Context, f models.SubscriberFilter) (int, error)

	RateFlags(ctx context.Context) ([]models.RateFlag, error)
	ZoneUsage(ctx context.Context) ([]models.ZoneUsage, error)

	RevenueRows(ctx context.Context, date time.Time) ([]models.RevenueRow, error)
	// RevenueAtRisk buckets paid-through dates by ascending bounds; bucket
	// len(bounds) is everything after the last bound.
	RevenueAtRisk(ctx context.Context, date time.Time, bounds []time.Time) ([]models.RiskRow, error)
	AnnualMarketRates(ctx context.Context) (map[string]float64, error)
}

// Service answers the analytics API actions.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// resolveDate returns d, or the latest snapshot date when d is nil, or
// today when the store is empty.
func (s *Service) resolveDate(ctx context.Context, d *time.Time) (time.Time, error) {
	if d != nil {
		return *d, nil
	}
	latest, ok, err := s.store.LatestSnapshotDate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		now := s.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return latest, nil
}

// DataRange returns the span of stored snapshot dates.
func (s *Service) DataRange(ctx context.Context) (models.DataRange, error) {
	return s.store.DataRange(ctx)
}

// Paper returns the newest snapshot row of a paper.
func (s *Service) Paper(ctx context.Context, code string) (*models.DailySnapshot, error) {
	if code == "" {
		return nil, paramErr("code", "paper code is required")
	}
	snap, err := s.store.LatestPaperSnapshot(ctx, code)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNotFound
	}
	return snap, nil
}

// series loads the TrendWeeks window ending at week and returns it keyed by
// snapshot date, plus the week starts in order.
func (s *Service) series(ctx context.Context, unit string, week Week) (map[time.Time]models.SeriesRow, []time.Time, error) {
	weeks := week.Weeks(TrendWeeks)
	rows, err := s.store.Series(ctx, unit, weeks[0], week.Start)
	if err != nil {
		return nil, nil, err
	}
	byDate := make(map[time.Time]models.SeriesRow, len(rows))
	for _, r := range rows {
		byDate[r.SnapshotDate.UTC()] = r
	}
	return byDate, weeks, nil
}

func activePoints(byDate map[time.Time]models.SeriesRow, weeks []time.Time) []Point {
	points := make([]Point, len(weeks))
	for i, d := range weeks {
		points[i] = Point{Date: d}
		if r, ok := byDate[d.UTC()]; ok {
			points[i].Value = Float(float64(r.TotalActive))
		}
	}
	return points
}
