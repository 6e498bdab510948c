// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package models

// RevenueRow sums the paying subscribers of one paper and delivery type on
// a snapshot date. Legacy subscribers pay less than the market rate of
// their subscription length and carry no special or ignored rate flag.
type RevenueRow struct {
	BusinessUnit      string
	PaperCode         string
	PaperName         string
	DeliveryType      string
	Subscribers       int
	Revenue           float64
	LegacySubscribers int
	LegacyRevenue     float64
}

// RiskRow sums the paying subscribers of one unit whose paid-through date
// falls in an expiration bucket. Bucket indexes the boundaries passed to
// the query.
type RiskRow struct {
	BusinessUnit string
	Bucket       int
	Subscribers  int
	Revenue      float64
}
