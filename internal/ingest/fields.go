// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

// fallbackLayouts are tried after the slash formats.
var fallbackLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses M/D/YY, M/D/YYYY and a few vendor fallbacks. Two-digit
// years are in the 2000s. Calendar-invalid dates such as 2/30/25 are
// rejected. The result is midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseSlashDate(s); ok {
		return t, true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseSlashDate(s string) (time.Time, bool) {
	// Some exports append a time after the date.
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}
	switch len(parts[2]) {
	case 2:
		year += 2000
	case 4:
	default:
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// optionalDate parses a date cell, returning nil for blank or invalid input.
func optionalDate(s string) *time.Time {
	t, ok := ParseDate(s)
	if !ok {
		return nil
	}
	return &t
}

// ParseCurrency parses amounts like "$1,234.50" and "(12.00)". Blank or
// unparseable input returns nil.
func ParseCurrency(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if negative {
		v = -v
	}
	return &v
}

// ParseCount parses an integer count cell. Blank or invalid input is 0.
func ParseCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

// ParsePercent parses "85.5%" or "85.5". Invalid input is 0.
func ParsePercent(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ClassifyDelivery maps a vendor delivery code to MAIL, CARRIER, DIGITAL or
// OTHER.
func ClassifyDelivery(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "MAIL":
		return models.DeliveryMail
	case "CARR", "CARRIER":
		return models.DeliveryCarrier
	case "INTE", "INTERNET", "DIGITAL", "EMAI", "EMAIL":
		return models.DeliveryDigital
	default:
		return models.DeliveryOther
	}
}

// IsVacationZone reports whether a zone label marks a vacation hold.
//
// The vendor has no vacation column on the subscriber report; held
// subscribers are moved to a zone whose label contains "VAC". This is a
// data-contract assumption about the export and nothing more general.
func IsVacationZone(zone string) bool {
	return strings.Contains(strings.ToUpper(zone), "VAC")
}

// round rounds v to the given number of decimal places.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// normalizeCode upper-cases and trims a paper or subscriber code.
func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
