// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import (
	"math"
	"time"
)

// Anomaly severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

const (
	anomalyMinPoints = 4
	anomalyZ         = 2.0
	anomalyHighZ     = 3.0
)

// Anomaly is a week whose value sits far from the series mean.
type Anomaly struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	ZScore   float64   `json:"z_score"`
	Severity string    `json:"severity"`
}

// DetectAnomalies flags present weeks whose z-score against the population
// standard deviation exceeds 2 in magnitude; above 3 is high severity.
// Fewer than four present weeks yield no anomalies, as does a constant
// series.
func DetectAnomalies(points []Point) []Anomaly {
	weeks := present(points)
	anomalies := []Anomaly{}
	if len(weeks) < anomalyMinPoints {
		return anomalies
	}

	values := valuesOf(weeks)
	m := mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	stdDev := math.Sqrt(variance / float64(len(values)))

	for i, p := range weeks {
		var z float64
		if stdDev > 0 {
			z = (values[i] - m) / stdDev
		}
		if math.Abs(z) <= anomalyZ {
			continue
		}
		severity := SeverityMedium
		if math.Abs(z) > anomalyHighZ {
			severity = SeverityHigh
		}
		anomalies = append(anomalies, Anomaly{
			Date:     p.Date,
			Value:    values[i],
			ZScore:   round(z, 2),
			Severity: severity,
		})
	}
	return anomalies
}
