// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

// Trend directions.
const (
	TrendGrowing   = "growing"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

const (
	trendMinPoints   = 8
	trendRecentWeeks = 4
	trendBaseWeeks   = 8
	trendThreshold   = 2.0
)

// TrendDirection compares the mean of the last four weeks with the mean of
// the first eight. A move of more than 2% either way is growing or
// declining. Series with fewer than eight present weeks are stable.
func TrendDirection(points []Point) string {
	values := valuesOf(present(points))
	if len(values) < trendMinPoints {
		return TrendStable
	}
	recent := mean(values[len(values)-trendRecentWeeks:])
	base := mean(values[:trendBaseWeeks])
	if base <= 0 {
		return TrendStable
	}
	change := (recent - base) / base * 100
	switch {
	case change > trendThreshold:
		return TrendGrowing
	case change < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func valuesOf(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = *p.Value
	}
	return out
}
