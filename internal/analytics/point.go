// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import (
	"math"
	"time"
)

// Point is one week of a series. Value is nil when no snapshot exists.
type Point struct {
	Date  time.Time `json:"date"`
	Value *float64  `json:"value"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// present returns the points that carry a value, in order.
func present(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Value != nil {
			out = append(out, p)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
