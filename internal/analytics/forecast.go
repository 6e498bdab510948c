// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import "math"

// Forecast confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

const forecastMinPoints = 4

// Prediction is the next-week forecast of a series.
type Prediction struct {
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Confidence    string  `json:"confidence"`
}

// Forecast fits a least squares line over the present points, numbered
// from 1, and projects it one step past the last. It returns nil when fewer
// than four weeks are present.
//
// Confidence is the residual standard deviation relative to the mean:
// below 0.02 is high, above 0.05 is low.
func Forecast(points []Point) *Prediction {
	values := valuesOf(present(points))
	n := float64(len(values))
	if len(values) < forecastMinPoints {
		return nil
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i + 1)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	slope := (n*sumXY - sumX*sumY) / (n*sumX2 - sumX*sumX)
	intercept := (sumY - slope*sumX) / n

	next := math.Round(slope*(n+1) + intercept)
	last := values[len(values)-1]

	var residuals float64
	for i, y := range values {
		d := y - (slope*float64(i+1) + intercept)
		residuals += d * d
	}
	stdDev := math.Sqrt(residuals / n)

	confidence := ConfidenceLow
	if avg := sumY / n; avg > 0 {
		switch ratio := stdDev / avg; {
		case ratio < 0.02:
			confidence = ConfidenceHigh
		case ratio > 0.05:
			confidence = ConfidenceLow
		default:
			confidence = ConfidenceMedium
		}
	}

	c := Compare(next, last)
	return &Prediction{
		Value:         next,
		Change:        c.Change,
		ChangePercent: c.ChangePercent,
		Confidence:    confidence,
	}
}
