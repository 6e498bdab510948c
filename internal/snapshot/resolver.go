// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

// Package snapshot maps upload and report timestamps to the canonical
// Sunday a weekly circulation export is attributed to.
//
// Exports cover a completed Monday-Saturday reporting week. Anything run
// between Saturday and the Monday cutoff belongs to the week that just
// closed; anything later in the week is attributed to the previous
// completed week so an in-progress week never receives data.
//
//	r := snapshot.NewResolver(8)
//	sunday := r.Resolve(time.Now())
package snapshot

import (
	"regexp"
	"time"
)

// DefaultMondayCutoffHour is the hour on Monday after which uploads are
// no longer attributed to the preceding Sunday.
const DefaultMondayCutoffHour = 8

// DateLayout is the storage and wire layout for snapshot dates.
const DateLayout = "2006-01-02"

// Resolver resolves timestamps to snapshot dates.
// The zero value is not usable; create one with NewResolver.
type Resolver struct {
	mondayCutoffHour int
}

// NewResolver creates a resolver with the given Monday cutoff hour.
// Values outside 0-23 fall back to DefaultMondayCutoffHour.
func NewResolver(mondayCutoffHour int) *Resolver {
	if mondayCutoffHour < 0 || mondayCutoffHour > 23 {
		mondayCutoffHour = DefaultMondayCutoffHour
	}
	return &Resolver{mondayCutoffHour: mondayCutoffHour}
}

// MondayCutoffHour returns the configured cutoff hour.
func (r *Resolver) MondayCutoffHour() int {
	return r.mondayCutoffHour
}

// Resolve returns the snapshot date (midnight, in t's location) for t.
//
//   - Sunday: same day
//   - Saturday: next day
//   - Monday before the cutoff hour: previous day
//   - Monday at or after the cutoff through Friday: back (weekday + 7) days
//
// Resolve is idempotent: a resolved Sunday resolves to itself.
func (r *Resolver) Resolve(t time.Time) time.Time {
	day := Truncate(t)

	switch t.Weekday() {
	case time.Sunday:
		return day
	case time.Saturday:
		return day.AddDate(0, 0, 1)
	case time.Monday:
		if t.Hour() < r.mondayCutoffHour {
			return day.AddDate(0, 0, -1)
		}
	}

	// time.Weekday counts Monday as 1 through Friday as 5.
	return day.AddDate(0, 0, -(int(t.Weekday()) + 7))
}

// Truncate returns midnight of t's calendar day in t's location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsCanonical reports whether d falls on a Sunday.
func IsCanonical(d time.Time) bool {
	return d.Weekday() == time.Sunday
}

var reportTimestamp = regexp.MustCompile(`(\d{14})\.csv$`)

// FromFilename extracts the report run timestamp embedded in vendor export
// names such as AllSubscriberReport20251208120000.csv. The second return
// value is false when the name carries no valid timestamp.
func FromFilename(name string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	m := reportTimestamp.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("20060102150405", m[1], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Week returns the ISO week number and ISO year of d.
func Week(d time.Time) (week, year int) {
	year, week = d.ISOWeek()
	return week, year
}
