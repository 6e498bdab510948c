// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package models

import "time"

// Renewal statuses.
const (
	RenewalStatusRenew  = "RENEW"
	RenewalStatusExpire = "EXPIRE"
)

// Subscription types reported on renewal exports.
const (
	SubscriptionRegular       = "REGULAR"
	SubscriptionMonthly       = "MONTHLY"
	SubscriptionComplimentary = "COMPLIMENTARY"
)

// RenewalEvent is an append-only record of a subscription renewing or
// expiring on an issue date.
type RenewalEvent struct {
	EventDate        time.Time `json:"event_date"`
	SubNum           string    `json:"sub_num"`
	PaperCode        string    `json:"paper_code"`
	Status           string    `json:"status"`
	SubscriptionType string    `json:"subscription_type"`
	SourceFilename   string    `json:"source_filename,omitempty"`
}

// ChurnSummary is the per-day renewal summary printed on renewal exports.
type ChurnSummary struct {
	SnapshotDate     time.Time `json:"snapshot_date"`
	PaperCode        string    `json:"paper_code"`
	SubscriptionType string    `json:"subscription_type"`
	ExpiringCount    int       `json:"expiring_count"`
	RenewedCount     int       `json:"renewed_count"`
	StoppedCount     int       `json:"stopped_count"`
	RenewalRate      float64   `json:"renewal_rate"`
	ChurnRate        float64   `json:"churn_rate"`
}

// RenewalWriteResult reports renewal persistence counts.
type RenewalWriteResult struct {
	EventsImported    int `json:"events_imported"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	SummariesImported int `json:"summaries_imported"`
}
