// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import (
	"fmt"
	"time"

	"github.com/tomtom215/circulation/internal/snapshot"
)

// Week is a Sunday to Saturday reporting window.
type Week struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Number int       `json:"week_num"`
	Year   int       `json:"year"`
}

// WeekBoundaries returns the Sunday to Saturday window holding d. Number and
// Year are the ISO week of the window's Sunday, which is the snapshot date
// stored for that week.
func WeekBoundaries(d time.Time) Week {
	d = snapshot.Truncate(d)
	start := d.AddDate(0, 0, -int(d.Weekday()))
	week, year := snapshot.Week(start)
	return Week{
		Start:  start,
		End:    start.AddDate(0, 0, 6),
		Number: week,
		Year:   year,
	}
}

// Label formats the week as "Week N, YYYY".
func (w Week) Label() string {
	return fmt.Sprintf("Week %d, %d", w.Number, w.Year)
}

// DateRange formats the window as "Jan 2 - Jan 8, 2006".
func (w Week) DateRange() string {
	return w.Start.Format("Jan 2") + " - " + w.End.Format("Jan 2, 2006")
}

// Previous returns the week before w.
func (w Week) Previous() Week {
	return WeekBoundaries(w.Start.AddDate(0, 0, -7))
}

// YearAgo returns the window holding the same calendar day one year earlier.
func (w Week) YearAgo() Week {
	return WeekBoundaries(w.Start.AddDate(-1, 0, 0))
}

// Weeks returns n consecutive week starts ending with w.Start.
func (w Week) Weeks(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = w.Start.AddDate(0, 0, -7*(n-1-i))
	}
	return out
}
