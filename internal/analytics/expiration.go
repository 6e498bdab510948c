// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import (
	"math"
	"strings"
	"time"
)

// Expiration buckets, in display order.
const (
	BucketPastDue  = "Past Due"
	BucketThisWeek = "This Week"
	BucketNextWeek = "Next Week"
	BucketWeekTwo  = "Week +2"
	BucketLater    = "Later"
)

// ExpirationBuckets lists the charted buckets in display order. Later is
// left off the chart but accepted for drill-down.
var ExpirationBuckets = []string{BucketPastDue, BucketThisWeek, BucketNextWeek, BucketWeekTwo}

// ExpirationHorizon is the last day offset that falls in a charted bucket.
const ExpirationHorizon = 21

// ExpirationBucket places a paid-through date relative to the snapshot
// date: before it is Past Due, 0-7 days after is This Week, 8-14 Next Week
// and 15-21 Week +2. Anything later returns "".
func ExpirationBucket(paidThru, snapshotDate time.Time) string {
	days := daysBetween(snapshotDate, paidThru)
	switch {
	case days < 0:
		return BucketPastDue
	case days <= 7:
		return BucketThisWeek
	case days <= 14:
		return BucketNextWeek
	case days <= ExpirationHorizon:
		return BucketWeekTwo
	default:
		return ""
	}
}

// ExpirationWindow bounds paid-through dates for one bucket. Before is
// exclusive; From and To are inclusive.
type ExpirationWindow struct {
	Before *time.Time
	From   *time.Time
	To     *time.Time
}

// BucketWindow returns the paid-through window for a bucket name. It is
// the inverse of ExpirationBucket, plus Later for anything past Week +2.
func BucketWindow(bucket string, snapshotDate time.Time) (ExpirationWindow, bool) {
	offset := func(days int) *time.Time {
		t := snapshotDate.AddDate(0, 0, days)
		return &t
	}
	switch bucket {
	case BucketPastDue:
		return ExpirationWindow{Before: offset(0)}, true
	case BucketThisWeek:
		return ExpirationWindow{From: offset(0), To: offset(7)}, true
	case BucketNextWeek:
		return ExpirationWindow{From: offset(8), To: offset(14)}, true
	case BucketWeekTwo:
		return ExpirationWindow{From: offset(15), To: offset(ExpirationHorizon)}, true
	case BucketLater:
		return ExpirationWindow{From: offset(ExpirationHorizon + 1)}, true
	}
	return ExpirationWindow{}, false
}

func daysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// AnnualLengthLabel is the merged label for the one-year spellings.
const AnnualLengthLabel = "12 M (1 Year)"

var annualLengths = []string{"12 M", "12M", "1 Y", "1Y"}

// NormalizeSubscriptionLength merges the vendor's one-year spellings into
// a single label and trims everything else.
func NormalizeSubscriptionLength(s string) string {
	s = strings.TrimSpace(s)
	for _, a := range annualLengths {
		if strings.EqualFold(s, a) {
			return AnnualLengthLabel
		}
	}
	return s
}

// LengthAliases returns the stored values a normalized label stands for.
func LengthAliases(label string) []string {
	if label == AnnualLengthLabel {
		return append([]string(nil), annualLengths...)
	}
	return []string{label}
}
