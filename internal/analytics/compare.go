// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

// Comparison is the difference between a current value and a baseline.
type Comparison struct {
	Baseline      float64 `json:"total"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Compare returns current minus baseline and the percent change rounded to
// one decimal. The percent is 0 when baseline is 0.
func Compare(current, baseline float64) Comparison {
	return compareAt(current, baseline, 1)
}

func compareAt(current, baseline float64, places int) Comparison {
	c := Comparison{Baseline: baseline, Change: current - baseline}
	if baseline != 0 {
		c.ChangePercent = round(c.Change/baseline*100, places)
	}
	return c
}
