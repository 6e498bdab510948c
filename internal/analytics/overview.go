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

// Comparison modes for the overview.
const (
	CompareYoY      = "yoy"
	ComparePrevious = "previous"
	CompareNone     = "none"
)

// WeekInfo is a Week with its display labels.
type WeekInfo struct {
	Week
	Label     string `json:"label"`
	DateRange string `json:"date_range"`
}

func (w Week) info() WeekInfo {
	return WeekInfo{Week: w, Label: w.Label(), DateRange: w.DateRange()}
}

// CurrentWeek is the summed circulation of the requested week.
type CurrentWeek struct {
	SnapshotDate time.Time `json:"snapshot_date"`
	models.Totals
}

// Changes are current minus baseline for the headline counts.
type Changes struct {
	TotalActive        int     `json:"total_active"`
	TotalActivePercent float64 `json:"total_active_percent"`
	OnVacation         int     `json:"on_vacation"`
	Deliverable        int     `json:"deliverable"`
}

func changes(current, baseline models.Totals) Changes {
	c := compareAt(float64(current.TotalActive), float64(baseline.TotalActive), 2)
	return Changes{
		TotalActive:        current.TotalActive - baseline.TotalActive,
		TotalActivePercent: c.ChangePercent,
		OnVacation:         current.OnVacation - baseline.OnVacation,
		Deliverable:        current.Deliverable - baseline.Deliverable,
	}
}

// PeriodComparison compares the current week with a baseline week.
type PeriodComparison struct {
	Type       string        `json:"type"`
	Label      string        `json:"label"`
	IsFallback bool          `json:"is_fallback,omitempty"`
	Period     WeekInfo      `json:"period"`
	Data       models.Totals `json:"data"`
	Changes    Changes       `json:"changes"`
}

// TrendWeek is one week of the overview trend. Counts are nil for weeks
// without a snapshot.
type TrendWeek struct {
	SnapshotDate *time.Time `json:"snapshot_date"`
	WeekNum      int        `json:"week_num"`
	Year         int        `json:"year"`
	TotalActive  *int       `json:"total_active"`
	OnVacation   *int       `json:"on_vacation"`
	Deliverable  *int       `json:"deliverable"`
}

// UnitComparison holds the comparisons shown on a business unit card.
type UnitComparison struct {
	YoY            *Comparison `json:"yoy"`
	PreviousWeek   *Comparison `json:"previous_week"`
	TrendDirection string      `json:"trend_direction"`
}

// Insights are the derived analytics of the overview.
type Insights struct {
	Forecast   *Prediction `json:"forecast"`
	Anomalies  []Anomaly   `json:"anomalies"`
	Performers Performers  `json:"performers"`
}

// Overview is the dashboard landing view for one week.
type Overview struct {
	HasData                 bool                      `json:"has_data"`
	Week                    WeekInfo                  `json:"week"`
	Message                 string                    `json:"message,omitempty"`
	Current                 *CurrentWeek              `json:"current"`
	Comparison              *PeriodComparison         `json:"comparison"`
	ComparisonMessage       string                    `json:"comparison_message,omitempty"`
	Trend                   []TrendWeek               `json:"trend"`
	ByBusinessUnit          map[string]models.Totals  `json:"by_business_unit"`
	BusinessUnitComparisons map[string]UnitComparison `json:"business_unit_comparisons"`
	ByEdition               []models.DailySnapshot    `json:"by_edition"`
	DataRange               models.DataRange          `json:"data_range"`
	Analytics               *Insights                 `json:"analytics"`
}

// OverviewRequest selects the overview week and comparison mode. A nil
// Date means the latest snapshot.
type OverviewRequest struct {
	Date    *time.Time
	Compare string
}

// Overview builds the dashboard overview.
func (s *Service) Overview(ctx context.Context, req OverviewRequest) (*Overview, error) {
	mode := req.Compare
	if mode == "" {
		mode = CompareYoY
	}
	if mode != CompareYoY && mode != ComparePrevious && mode != CompareNone {
		return nil, paramErr("compare", "must be one of yoy, previous, none")
	}

	date, err := s.resolveDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	week := WeekBoundaries(date)

	dataRange, err := s.store.DataRange(ctx)
	if err != nil {
		return nil, err
	}

	current, ok, err := s.store.Totals(ctx, week.Start, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Overview{
			Week:                    week.info(),
			Message:                 fmt.Sprintf("No snapshot uploaded for Week %d", week.Number),
			Trend:                   []TrendWeek{},
			ByBusinessUnit:          map[string]models.Totals{},
			BusinessUnitComparisons: map[string]UnitComparison{},
			ByEdition:               []models.DailySnapshot{},
			DataRange:               dataRange,
		}, nil
	}

	ov := &Overview{
		HasData:                 true,
		Week:                    week.info(),
		Current:                 &CurrentWeek{SnapshotDate: week.Start, Totals: current},
		ByBusinessUnit:          make(map[string]models.Totals),
		BusinessUnitComparisons: make(map[string]UnitComparison),
		DataRange:               dataRange,
	}

	switch mode {
	case CompareYoY:
		err = s.compareYearAgo(ctx, ov, week)
	case ComparePrevious:
		err = s.comparePrevious(ctx, ov, week, current)
	}
	if err != nil {
		return nil, err
	}

	byDate, weeks, err := s.series(ctx, "", week)
	if err != nil {
		return nil, err
	}
	ov.Trend = trendWeeks(byDate, weeks)
	points := activePoints(byDate, weeks)

	units, err := s.store.UnitTotals(ctx, week.Start)
	if err != nil {
		return nil, err
	}
	yoy := make(map[string]*Comparison, len(units))
	for _, u := range units {
		ov.ByBusinessUnit[u.BusinessUnit] = u.Totals
		cmp, err := s.unitComparison(ctx, u.BusinessUnit, week, u.TotalActive)
		if err != nil {
			return nil, err
		}
		ov.BusinessUnitComparisons[u.BusinessUnit] = cmp
		yoy[u.BusinessUnit] = cmp.YoY
	}

	if ov.ByEdition, err = s.store.Editions(ctx, week.Start, ""); err != nil {
		return nil, err
	}

	ov.Analytics = &Insights{
		Forecast:   Forecast(points),
		Anomalies:  DetectAnomalies(points),
		Performers: FindPerformers(yoy),
	}
	return ov, nil
}

// compareYearAgo compares only the business units present in both weeks so
// that added or sold units do not distort the change.
func (s *Service) compareYearAgo(ctx context.Context, ov *Overview, week Week) error {
	ago := week.YearAgo()
	now, err := s.store.BusinessUnits(ctx, week.Start)
	if err != nil {
		return err
	}
	then, err := s.store.BusinessUnits(ctx, ago.Start)
	if err != nil {
		return err
	}
	common := intersect(now, then)
	if len(common) == 0 {
		ov.ComparisonMessage = fmt.Sprintf("Year-over-year comparison unavailable (no %d data)", ago.Year)
		return nil
	}

	baseline, ok, err := s.store.Totals(ctx, ago.Start, common)
	if err != nil || !ok {
		return err
	}
	current, ok, err := s.store.Totals(ctx, week.Start, common)
	if err != nil || !ok {
		return err
	}
	ov.Comparison = &PeriodComparison{
		Type:    CompareYoY,
		Label:   "Year-over-Year",
		Period:  ago.info(),
		Data:    baseline,
		Changes: changes(current, baseline),
	}
	return nil
}

// comparePrevious uses the prior week, or the most recent earlier week with
// data when the prior week was never uploaded.
func (s *Service) comparePrevious(ctx context.Context, ov *Overview, week Week, current models.Totals) error {
	target := week.Previous()
	baseline, ok, err := s.store.Totals(ctx, target.Start, nil)
	if err != nil {
		return err
	}
	period := target
	if !ok {
		d, found, err := s.store.PreviousSnapshotDate(ctx, "", week.Start)
		if err != nil || !found {
			return err
		}
		if baseline, ok, err = s.store.Totals(ctx, d, nil); err != nil || !ok {
			return err
		}
		period = WeekBoundaries(d)
	}

	fallback := !period.Start.Equal(target.Start)
	label := "Previous Week"
	if fallback {
		label = fmt.Sprintf("Week %d (Week %d not available)", period.Number, target.Number)
	}
	ov.Comparison = &PeriodComparison{
		Type:       ComparePrevious,
		Label:      label,
		IsFallback: fallback,
		Period:     period.info(),
		Data:       baseline,
		Changes:    changes(current, baseline),
	}
	return nil
}

func (s *Service) unitComparison(ctx context.Context, unit string, week Week, current int) (UnitComparison, error) {
	out := UnitComparison{TrendDirection: TrendStable}
	units := []string{unit}

	ago, ok, err := s.store.Totals(ctx, week.YearAgo().Start, units)
	if err != nil {
		return out, err
	}
	if ok && ago.TotalActive > 0 {
		c := Compare(float64(current), float64(ago.TotalActive))
		out.YoY = &c
	}

	prev, ok, err := s.store.Totals(ctx, week.Previous().Start, units)
	if err != nil {
		return out, err
	}
	if !ok || prev.TotalActive == 0 {
		d, found, err := s.store.PreviousSnapshotDate(ctx, unit, week.Start)
		if err != nil {
			return out, err
		}
		if found {
			if prev, _, err = s.store.Totals(ctx, d, units); err != nil {
				return out, err
			}
		}
	}
	if prev.TotalActive > 0 {
		c := Compare(float64(current), float64(prev.TotalActive))
		out.PreviousWeek = &c
	}

	byDate, weeks, err := s.series(ctx, unit, week)
	if err != nil {
		return out, err
	}
	out.TrendDirection = TrendDirection(activePoints(byDate, weeks))
	return out, nil
}

func trendWeeks(byDate map[time.Time]models.SeriesRow, weeks []time.Time) []TrendWeek {
	out := make([]TrendWeek, len(weeks))
	for i, d := range weeks {
		w := WeekBoundaries(d)
		tw := TrendWeek{WeekNum: w.Number, Year: w.Year}
		if r, ok := byDate[d.UTC()]; ok {
			date := r.SnapshotDate
			total, vac, deliverable := r.TotalActive, r.OnVacation, r.Deliverable
			tw.SnapshotDate = &date
			tw.TotalActive = &total
			tw.OnVacation = &vac
			tw.Deliverable = &deliverable
		}
		out[i] = tw
	}
	return out
}

func intersect(a, b []string) []string {
	seen := make(map[string]bool, len(b))
	for _, v := range b {
		seen[v] = true
	}
	var out []string
	for _, v := range a {
		if seen[v] {
			out = append(out, v)
			delete(seen, v)
		}
	}
	sort.Strings(out)
	return out
}
