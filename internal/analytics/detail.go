// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

// UnitDetail is the business unit drill-down.
type UnitDetail struct {
	UnitName     string                 `json:"unit_name"`
	Week         WeekInfo               `json:"week"`
	Papers       []models.Paper         `json:"papers"`
	Trend        []models.SeriesRow     `json:"trend"`
	PaperDetails []models.DailySnapshot `json:"paper_details"`
}

// BusinessUnitDetail returns a unit's papers, its twelve-week trend and the
// per-paper rows of the requested week.
func (s *Service) BusinessUnitDetail(ctx context.Context, unit string, date *time.Time) (*UnitDetail, error) {
	if unit == "" {
		return nil, paramErr("unit", "business unit name is required")
	}
	d, err := s.resolveDate(ctx, date)
	if err != nil {
		return nil, err
	}
	week := WeekBoundaries(d)

	papers, err := s.store.UnitPapers(ctx, unit)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("business unit %q: %w", unit, ErrNotFound)
	}

	weeks := week.Weeks(TrendWeeks)
	trend, err := s.store.Series(ctx, unit, weeks[0], week.Start)
	if err != nil {
		return nil, err
	}
	details, err := s.store.Editions(ctx, week.Start, unit)
	if err != nil {
		return nil, err
	}
	return &UnitDetail{
		UnitName:     unit,
		Week:         week.info(),
		Papers:       papers,
		Trend:        nonNilRows(trend),
		PaperDetails: nonNilSnapshots(details),
	}, nil
}

// ExpirationCount is one bar of the expiration chart.
type ExpirationCount struct {
	WeekBucket string `json:"week_bucket"`
	Count      int    `json:"count"`
}

// RateCount is one slice of the rate distribution.
type RateCount struct {
	RateName string `json:"rate_name"`
	Count    int    `json:"count"`
}

// LengthCount is one slice of the subscription length distribution.
type LengthCount struct {
	SubscriptionLength string `json:"subscription_length"`
	Count              int    `json:"count"`
}

// DetailPanel is the expanded view of a business unit card.
type DetailPanel struct {
	BusinessUnit       string            `json:"business_unit"`
	SnapshotDate       time.Time         `json:"snapshot_date"`
	Papers             []models.Paper    `json:"papers"`
	Comparison         UnitComparison    `json:"comparison"`
	DeliveryBreakdown  models.Totals     `json:"delivery_breakdown"`
	ExpirationChart    []ExpirationCount `json:"expiration_chart"`
	RateDistribution   []RateCount       `json:"rate_distribution"`
	SubscriptionLength []LengthCount     `json:"subscription_length"`
}

// detailWindow is how far after the requested date an upload still counts
// for it.
const detailWindow = 7

// DetailPanel returns the delivery, expiration, rate and length breakdowns
// of a business unit. The snapshot used is the newest one within seven days
// after date, or the newest before it.
func (s *Service) DetailPanel(ctx context.Context, unit string, date time.Time) (*DetailPanel, error) {
	if unit == "" {
		return nil, paramErr("business_unit", "business unit is required")
	}
	papers, err := s.store.UnitPapers(ctx, unit)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("no papers for business unit %q: %w", unit, ErrNotFound)
	}
	codes := make([]string, len(papers))
	for i, p := range papers {
		codes[i] = p.Code
	}

	actual, ok, err := s.store.LatestDetailDate(ctx, codes, date.AddDate(0, 0, detailWindow))
	if err != nil {
		return nil, err
	}
	if !ok {
		actual = date
	}

	panel := &DetailPanel{BusinessUnit: unit, SnapshotDate: actual, Papers: papers}

	if panel.DeliveryBreakdown, _, err = s.store.Totals(ctx, actual, []string{unit}); err != nil {
		return nil, err
	}
	week := WeekBoundaries(actual)
	if panel.Comparison, err = s.unitComparison(ctx, unit, week, panel.DeliveryBreakdown.TotalActive); err != nil {
		return nil, err
	}

	paid, err := s.store.PaidThruCounts(ctx, codes, actual, actual.AddDate(0, 0, ExpirationHorizon))
	if err != nil {
		return nil, err
	}
	panel.ExpirationChart = expirationChart(paid, actual)

	rates, err := s.store.Distribution(ctx, codes, actual, models.DimensionRate)
	if err != nil {
		return nil, err
	}
	panel.RateDistribution = make([]RateCount, 0, len(rates))
	for _, b := range rates {
		panel.RateDistribution = append(panel.RateDistribution, RateCount{RateName: b.Value, Count: b.Count})
	}

	lengths, err := s.store.Distribution(ctx, codes, actual, models.DimensionLength)
	if err != nil {
		return nil, err
	}
	panel.SubscriptionLength = lengthDistribution(lengths)
	return panel, nil
}

// expirationChart buckets paid-through counts; every charted bucket is
// present, in display order.
func expirationChart(counts []models.DateCount, snapshotDate time.Time) []ExpirationCount {
	totals := make(map[string]int, len(ExpirationBuckets))
	for _, c := range counts {
		if b := ExpirationBucket(c.Date, snapshotDate); b != "" {
			totals[b] += c.Count
		}
	}
	out := make([]ExpirationCount, len(ExpirationBuckets))
	for i, b := range ExpirationBuckets {
		out[i] = ExpirationCount{WeekBucket: b, Count: totals[b]}
	}
	return out
}

func lengthDistribution(buckets []models.CountBucket) []LengthCount {
	merged := make(map[string]int)
	for _, b := range buckets {
		merged[NormalizeSubscriptionLength(b.Value)] += b.Count
	}
	out := make([]LengthCount, 0, len(merged))
	for label, n := range merged {
		out = append(out, LengthCount{SubscriptionLength: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].SubscriptionLength < out[j].SubscriptionLength
	})
	return out
}

func nonNilRows(rows []models.SeriesRow) []models.SeriesRow {
	if rows == nil {
		return []models.SeriesRow{}
	}
	return rows
}

func nonNilSnapshots(rows []models.DailySnapshot) []models.DailySnapshot {
	if rows == nil {
		return []models.DailySnapshot{}
	}
	return rows
}
