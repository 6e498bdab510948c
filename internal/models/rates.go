// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package models

import "time"

// RateFlagKey identifies a rate for manual classification.
type RateFlagKey struct {
	PaperCode          string  `json:"paper_code" validate:"required,max=10"`
	Zone               string  `json:"zone" validate:"required,max=50"`
	RateName           string  `json:"rate_name" validate:"max=255"`
	SubscriptionLength string  `json:"subscription_length" validate:"required,max=20"`
	RateAmount         float64 `json:"rate_amount" validate:"gte=0"`
}

// RateFlag overrides automatic market-rate detection for one rate.
type RateFlag struct {
	RateFlagKey
	IsLegacy           bool `json:"is_legacy"`
	IsIgnored          bool `json:"is_ignored"`
	IsSpecial          bool `json:"is_special"`
	AutoDetectedLegacy bool `json:"auto_detected_legacy"`
}

// Flagged reports whether any manual flag excludes the rate from market
// classification.
func (f *RateFlag) Flagged() bool {
	return f.IsLegacy || f.IsIgnored || f.IsSpecial
}

// RateRecord is one row of a vendor rates export.
type RateRecord struct {
	RateFlagKey
	RateID             string     `json:"rate_id,omitempty"`
	Length             float64    `json:"length"`
	LengthType         string     `json:"length_type"`
	EffectiveDate      *time.Time `json:"effective_date,omitempty"`
	AutoDetectedLegacy bool       `json:"auto_detected_legacy"`
	AnnualizedRate     float64    `json:"annualized_rate"`
}

// RateStructure is the market rate for a paper and subscription length.
type RateStructure struct {
	PaperCode          string  `json:"paper_code"`
	SubscriptionLength string  `json:"subscription_length"`
	MarketRate         float64 `json:"market_rate"`
	RateName           string  `json:"rate_name"`
	AnnualizedRate     float64 `json:"annualized_rate"`
}

// RateWriteResult reports rates persistence counts.
type RateWriteResult struct {
	NewRates     int `json:"new_rates"`
	UpdatedRates int `json:"updated_rates"`
	MarketRates  int `json:"market_rates"`
}

// ZoneUsage is the subscriber count and average paid amount for a zone in
// one snapshot.
type ZoneUsage struct {
	Zone            string  `json:"zone"`
	SubscriberCount int     `json:"subscriber_count"`
	AverageRate     float64 `json:"avg_rate"`
}
