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

// Drill-down metric types.
const (
	MetricExpiration         = "expiration"
	MetricRate               = "rate"
	MetricSubscriptionLength = "subscription_length"
)

// MetricQuery names one chart slice of a business unit.
type MetricQuery struct {
	BusinessUnit string
	MetricType   string
	MetricValue  string
}

func (q MetricQuery) validate() error {
	switch {
	case q.BusinessUnit == "":
		return paramErr("business_unit", "is required")
	case q.MetricType == "":
		return paramErr("metric_type", "is required")
	case q.MetricValue == "":
		return paramErr("metric_value", "is required")
	}
	return nil
}

// filter returns the subscriber filter for the slice on one snapshot date.
func (q MetricQuery) filter(date time.Time) (models.SubscriberFilter, error) {
	f := models.SubscriberFilter{BusinessUnit: q.BusinessUnit, SnapshotDate: date}
	switch q.MetricType {
	case MetricExpiration:
		w, ok := BucketWindow(q.MetricValue, date)
		if !ok {
			return f, paramErr("metric_value", "unknown expiration bucket %q", q.MetricValue)
		}
		f.PaidThruBefore, f.PaidThruFrom, f.PaidThruTo = w.Before, w.From, w.To
	case MetricRate:
		f.RateName = q.MetricValue
	case MetricSubscriptionLength:
		f.SubscriptionLengths = LengthAliases(q.MetricValue)
	default:
		return f, paramErr("metric_type", "unknown metric type %q", q.MetricType)
	}
	return f, nil
}

// SubscriberList is the drill-down result for one chart slice.
type SubscriberList struct {
	MetricType    string                     `json:"metric_type"`
	Metric        string                     `json:"metric"`
	Count         int                        `json:"count"`
	SnapshotDate  time.Time                  `json:"snapshot_date"`
	RequestedDate time.Time                  `json:"requested_date"`
	BusinessUnit  string                     `json:"business_unit"`
	Subscribers   []models.SubscriberContact `json:"subscribers"`
}

// Subscribers lists the subscribers behind a chart slice, using the newest
// snapshot of the unit on or before the end of the week holding date.
func (s *Service) Subscribers(ctx context.Context, q MetricQuery, date time.Time) (*SubscriberList, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	if _, err := q.filter(date); err != nil {
		return nil, err
	}

	end := WeekBoundaries(date).End
	actual, ok, err := s.store.PreviousSnapshotDate(ctx, q.BusinessUnit, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	f, err := q.filter(actual)
	if err != nil {
		return nil, err
	}
	f.Limit = SubscriberLimit
	subs, err := s.store.Subscribers(ctx, f)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []models.SubscriberContact{}
	}
	return &SubscriberList{
		MetricType:    q.MetricType,
		Metric:        q.MetricValue,
		Count:         len(subs),
		SnapshotDate:  actual,
		RequestedDate: date,
		BusinessUnit:  q.BusinessUnit,
		Subscribers:   subs,
	}, nil
}

// TimeRanges maps the accepted trend ranges to weeks.
var TimeRanges = map[string]int{
	"4weeks":  4,
	"12weeks": 12,
	"26weeks": 26,
	"52weeks": 52,
}

// DefaultTimeRange is used when the requested range is unknown.
const DefaultTimeRange = "12weeks"

// MetricPoint is one snapshot of a metric trend.
type MetricPoint struct {
	SnapshotDate       time.Time `json:"snapshot_date"`
	Count              int       `json:"count"`
	ChangeFromPrevious int       `json:"change_from_previous"`
	ChangePercent      float64   `json:"change_percent"`
}

// MetricTrend is the history of one chart slice.
type MetricTrend struct {
	MetricType   string        `json:"metric_type"`
	Metric       string        `json:"metric"`
	TimeRange    string        `json:"time_range"`
	BusinessUnit string        `json:"business_unit"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	DataPoints   []MetricPoint `json:"data_points"`
}

// Trend counts a chart slice at every snapshot of the unit in the range
// ending with the week holding end.
func (s *Service) Trend(ctx context.Context, q MetricQuery, timeRange string, end time.Time) (*MetricTrend, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	if _, err := q.filter(end); err != nil {
		return nil, err
	}
	weeks, ok := TimeRanges[timeRange]
	if !ok {
		timeRange, weeks = DefaultTimeRange, TimeRanges[DefaultTimeRange]
	}

	last := WeekBoundaries(end).End
	first := last.AddDate(0, 0, -7*weeks)
	rows, err := s.store.Series(ctx, q.BusinessUnit, first, last)
	if err != nil {
		return nil, err
	}

	out := &MetricTrend{
		MetricType:   q.MetricType,
		Metric:       q.MetricValue,
		TimeRange:    timeRange,
		BusinessUnit: q.BusinessUnit,
		StartDate:    first,
		EndDate:      last,
		DataPoints:   make([]MetricPoint, 0, len(rows)),
	}
	for i, r := range rows {
		f, err := q.filter(r.SnapshotDate)
		if err != nil {
			return nil, err
		}
		n, err := s.store.CountSubscribers(ctx, f)
		if err != nil {
			return nil, err
		}
		prev := n
		if i > 0 {
			prev = out.DataPoints[i-1].Count
		}
		c := Compare(float64(n), float64(prev))
		out.DataPoints = append(out.DataPoints, MetricPoint{
			SnapshotDate:       r.SnapshotDate,
			Count:              n,
			ChangeFromPrevious: n - prev,
			ChangePercent:      c.ChangePercent,
		})
	}
	return out, nil
}

// RatesOverview is the rate classification screen.
type RatesOverview struct {
	Rates       []RateView `json:"rates"`
	MarketRates int        `json:"market_rate_count"`
}

// Rates classifies every stored rate against current zone usage.
func (s *Service) Rates(ctx context.Context) (*RatesOverview, error) {
	flags, err := s.store.RateFlags(ctx)
	if err != nil {
		return nil, err
	}
	usage, err := s.store.ZoneUsage(ctx)
	if err != nil {
		return nil, err
	}
	var byZone map[string]int
	if len(usage) > 0 {
		byZone = make(map[string]int, len(usage))
		for _, u := range usage {
			byZone[u.Zone] = u.SubscriberCount
		}
	}

	views := ClassifyRates(flags, byZone)
	markets := make(map[marketKey]bool)
	for i := range views {
		if views[i].IsMarket {
			markets[marketKey{views[i].PaperCode, views[i].SubscriptionLength}] = true
		}
	}
	return &RatesOverview{Rates: views, MarketRates: len(markets)}, nil
}
