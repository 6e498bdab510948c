// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package models

import "time"

// Totals are summed circulation counts for a set of snapshot rows.
type Totals struct {
	TotalActive int `json:"total_active"`
	OnVacation  int `json:"on_vacation"`
	Deliverable int `json:"deliverable"`
	Mail        int `json:"mail"`
	Carrier     int `json:"carrier"`
	Digital     int `json:"digital"`
}

// UnitTotals are Totals for one business unit.
type UnitTotals struct {
	BusinessUnit string `json:"business_unit"`
	Totals
}

// SeriesRow is one snapshot date of a summed series.
type SeriesRow struct {
	SnapshotDate time.Time `json:"snapshot_date"`
	Totals
}

// DataRange describes the snapshot dates present in the store.
type DataRange struct {
	MinDate        *time.Time `json:"min_date"`
	MaxDate        *time.Time `json:"max_date"`
	TotalSnapshots int        `json:"total_snapshots"`
}

// Dimension names a groupable subscriber detail column.
type Dimension string

const (
	DimensionRate   Dimension = "rate_name"
	DimensionLength Dimension = "subscription_length"
)

// CountBucket is a value and the number of subscribers carrying it.
type CountBucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// DateCount is the number of subscribers paid through a date.
type DateCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// SubscriberFilter selects subscriber detail rows for one snapshot.
// Zero-valued fields do not filter.
type SubscriberFilter struct {
	BusinessUnit        string
	PaperCodes          []string
	SnapshotDate        time.Time
	RateName            string
	SubscriptionLengths []string
	PaidThruBefore      *time.Time
	PaidThruFrom        *time.Time
	PaidThruTo          *time.Time
	Limit               int
}

// SubscriberContact is the drill-down view of one subscriber.
type SubscriberContact struct {
	AccountID         string     `json:"account_id"`
	SubscriberName    string     `json:"subscriber_name"`
	Phone             string     `json:"phone"`
	Email             string     `json:"email"`
	MailingAddress    string     `json:"mailing_address"`
	PaperCode         string     `json:"paper_code"`
	PaperName         string     `json:"paper_name"`
	CurrentRate       string     `json:"current_rate"`
	RateAmount        *float64   `json:"rate_amount"`
	LastPaymentAmount *float64   `json:"last_payment_amount"`
	PaymentMethod     string     `json:"payment_method"`
	ExpirationDate    *time.Time `json:"expiration_date"`
	DeliveryType      string     `json:"delivery_type"`
}
