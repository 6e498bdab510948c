// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package models

import "time"

// Delivery types recognized in subscriber exports.
const (
	DeliveryMail    = "MAIL"
	DeliveryCarrier = "CARRIER"
	DeliveryDigital = "DIGITAL"
	DeliveryOther   = "OTHER"
)

// SnapshotKey identifies a weekly summary row.
type SnapshotKey struct {
	SnapshotDate time.Time
	PaperCode    string
}

// DailySnapshot is the per-paper weekly circulation summary.
// Deliverable is always TotalActive - OnVacation.
type DailySnapshot struct {
	SnapshotDate    time.Time `json:"snapshot_date"`
	WeekNum         int       `json:"week_num"`
	Year            int       `json:"year"`
	PaperCode       string    `json:"paper_code"`
	PaperName       string    `json:"paper_name"`
	BusinessUnit    string    `json:"business_unit"`
	TotalActive     int       `json:"total_active"`
	Deliverable     int       `json:"deliverable"`
	MailDelivery    int       `json:"mail_delivery"`
	CarrierDelivery int       `json:"carrier_delivery"`
	DigitalOnly     int       `json:"digital_only"`
	OnVacation      int       `json:"on_vacation"`
	SourceFilename  string    `json:"source_filename,omitempty"`
	SourceDate      time.Time `json:"source_date"`
}

// Key returns the natural key of the snapshot.
func (s *DailySnapshot) Key() SnapshotKey {
	return SnapshotKey{SnapshotDate: s.SnapshotDate, PaperCode: s.PaperCode}
}

// SubscriberKey identifies one subscriber in one weekly snapshot.
type SubscriberKey struct {
	SnapshotDate time.Time
	SubNum       string
	PaperCode    string
}

// String formats the key for map lookups across drivers that return dates
// in different locations.
func (k SubscriberKey) String() string {
	return k.SnapshotDate.Format("2006-01-02") + "|" + k.SubNum + "|" + k.PaperCode
}

// SubscriberRecord is one subscriber row of a weekly snapshot.
type SubscriberRecord struct {
	UploadID           int64      `json:"upload_id,omitempty"`
	SnapshotDate       time.Time  `json:"snapshot_date"`
	WeekNum            int        `json:"week_num"`
	Year               int        `json:"year"`
	SubNum             string     `json:"sub_num"`
	PaperCode          string     `json:"paper_code"`
	PaperName          string     `json:"paper_name"`
	BusinessUnit       string     `json:"business_unit"`
	Name               string     `json:"name,omitempty"`
	Route              string     `json:"route,omitempty"`
	RateName           string     `json:"rate_name,omitempty"`
	SubscriptionLength string     `json:"subscription_length,omitempty"`
	DeliveryType       string     `json:"delivery_type"`
	PaymentStatus      string     `json:"payment_status,omitempty"`
	BeginDate          *time.Time `json:"begin_date,omitempty"`
	PaidThru           *time.Time `json:"paid_thru,omitempty"`
	DailyRate          *float64   `json:"daily_rate,omitempty"`
	LastPaymentAmount  *float64   `json:"last_payment_amount,omitempty"`
	OnVacation         bool       `json:"on_vacation"`
	VacationStart      *time.Time `json:"vacation_start,omitempty"`
	VacationEnd        *time.Time `json:"vacation_end,omitempty"`
	VacationWeeks      *float64   `json:"vacation_weeks,omitempty"`
	Address            string     `json:"address,omitempty"`
	CityStatePostal    string     `json:"city_state_postal,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	Email              string     `json:"email,omitempty"`
	ABC                string     `json:"abc,omitempty"`
	IssueCode          string     `json:"issue_code,omitempty"`
	LoginID            string     `json:"login_id,omitempty"`
	LastLogin          *time.Time `json:"last_login,omitempty"`
	SourceFilename     string     `json:"source_filename,omitempty"`
	SourceDate         time.Time  `json:"source_date"`
}

// Key returns the natural key of the record.
func (r *SubscriberRecord) Key() SubscriberKey {
	return SubscriberKey{SnapshotDate: r.SnapshotDate, SubNum: r.SubNum, PaperCode: r.PaperCode}
}

// SnapshotBatch is the complete output of one subscriber report. It is
// written atomically.
type SnapshotBatch struct {
	UploadID    int64
	Filename    string
	Snapshots   []DailySnapshot
	Subscribers []SubscriberRecord
}

// WriteResult reports how many rows a batch inserted versus updated.
type WriteResult struct {
	NewRecords       int `json:"new_records"`
	UpdatedRecords   int `json:"updated_records"`
	NewSnapshots     int `json:"new_snapshots"`
	UpdatedSnapshots int `json:"updated_snapshots"`
}

// VacationUpdate marks one subscriber as on vacation for a window.
type VacationUpdate struct {
	SubNum        string    `json:"sub_num"`
	PaperCode     string    `json:"paper_code"`
	VacationStart time.Time `json:"vacation_start"`
	VacationEnd   time.Time `json:"vacation_end"`
	VacationWeeks float64   `json:"vacation_weeks"`
}

// VacationResult reports the outcome of applying vacation updates.
type VacationResult struct {
	SnapshotDates      []time.Time `json:"snapshot_dates"`
	SubscribersUpdated int         `json:"subscribers_updated"`
	NotFound           []string    `json:"not_found,omitempty"`
	SnapshotsUpdated   int         `json:"snapshots_updated"`
}
