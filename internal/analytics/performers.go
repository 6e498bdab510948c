// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import "sort"

// UnitChange is a business unit's year-over-year movement.
type UnitChange struct {
	Unit          string  `json:"unit"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Performers names the best and worst business units by YoY percent.
type Performers struct {
	Strongest *UnitChange `json:"strongest"`
	Weakest   *UnitChange `json:"weakest"`
}

// FindPerformers picks the strongest and weakest unit by YoY percent change.
// Units without a YoY comparison are ignored. Ties go to the unit whose
// name sorts first.
func FindPerformers(yoy map[string]*Comparison) Performers {
	units := make([]string, 0, len(yoy))
	for unit, c := range yoy {
		if c != nil {
			units = append(units, unit)
		}
	}
	sort.Strings(units)

	var p Performers
	for _, unit := range units {
		c := yoy[unit]
		change := UnitChange{Unit: unit, Change: c.Change, ChangePercent: c.ChangePercent}
		if p.Strongest == nil || c.ChangePercent > p.Strongest.ChangePercent {
			s := change
			p.Strongest = &s
		}
		if p.Weakest == nil || c.ChangePercent < p.Weakest.ChangePercent {
			w := change
			p.Weakest = &w
		}
	}
	return p
}
