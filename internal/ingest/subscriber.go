// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"errors"
	"io"
	"sort"
	"time"

	"github.com/tomtom215/circulation/internal/models"
	"github.com/tomtom215/circulation/internal/snapshot"
)

// Subscriber report columns.
const (
	ColSubNum          = "SUB NUM"
	ColEdition         = "Ed"
	ColIssue           = "ISS"
	ColDelivery        = "DEL"
	ColName            = "Name"
	ColRoute           = "Route"
	ColZone            = "Zone"
	ColLength          = "LEN"
	ColPayment         = "PAY"
	ColBegin           = "BEGIN"
	ColPaidThru        = "Paid Thru"
	ColDailyRate       = "DAILY RATE"
	ColLastPay         = "LAST PAY"
	ColAddress         = "Address"
	ColCityStatePostal = "CITY  STATE  POSTAL"
	ColPhone           = "Phone"
	ColEmail           = "Email"
	ColABC             = "ABC"
	ColLoginID         = "Login ID"
	ColLastLogin       = "Last Login"
)

// SubscriberLayout is the All Subscriber report.
var SubscriberLayout = Layout{
	Report:       "subscriber report",
	HeaderMarker: ColSubNum,
	Columns: []Column{
		{Name: ColSubNum, Required: true},
		{Name: ColEdition, Required: true},
		{Name: ColIssue, Required: true},
		{Name: ColDelivery, Required: true},
		{Name: ColName},
		{Name: ColRoute},
		{Name: ColZone},
		{Name: ColLength},
		{Name: ColPayment},
		{Name: ColBegin},
		{Name: ColPaidThru},
		{Name: ColDailyRate},
		{Name: ColLastPay},
		{Name: ColAddress},
		{Name: ColCityStatePostal},
		{Name: ColPhone},
		{Name: ColEmail},
		{Name: ColABC},
		{Name: ColLoginID},
		{Name: ColLastLogin},
	},
	FooterMarkers:  []string{"Report Criteria", "Report Start:", "Copies:Issues", "Edition Code"},
	DecorativeRows: 5,
}

// DefaultMinSnapshotDate is the earliest snapshot date accepted by default.
var DefaultMinSnapshotDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// FileMeta describes the uploaded file being parsed.
type FileMeta struct {
	Filename   string
	ReceivedAt time.Time
}

// UnitSummary is the per-business-unit breakdown of an import.
type UnitSummary struct {
	BusinessUnit string   `json:"business_unit"`
	Papers       []string `json:"papers"`
	TotalActive  int      `json:"total_active"`
	OnVacation   int      `json:"on_vacation"`
	Deliverable  int      `json:"deliverable"`
}

// SubscriberImport is the parsed form of one subscriber report.
type SubscriberImport struct {
	SnapshotDate time.Time
	Snapshots    []models.DailySnapshot
	Subscribers  []models.SubscriberRecord
	Stats        ImportStats
}

// ByBusinessUnit summarizes the snapshots per business unit, sorted by
// unit name.
func (imp *SubscriberImport) ByBusinessUnit() []UnitSummary {
	units := make(map[string]*UnitSummary)
	for _, s := range imp.Snapshots {
		u, ok := units[s.BusinessUnit]
		if !ok {
			u = &UnitSummary{BusinessUnit: s.BusinessUnit}
			units[s.BusinessUnit] = u
		}
		u.Papers = append(u.Papers, s.PaperCode)
		u.TotalActive += s.TotalActive
		u.OnVacation += s.OnVacation
		u.Deliverable += s.Deliverable
	}
	out := make([]UnitSummary, 0, len(units))
	for _, u := range units {
		sort.Strings(u.Papers)
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessUnit < out[j].BusinessUnit })
	return out
}

// SubscriberParser turns All Subscriber reports into snapshot batches.
type SubscriberParser struct {
	catalog  *models.PaperCatalog
	resolver *snapshot.Resolver
	minDate  time.Time
	loc      *time.Location
}

// NewSubscriberParser creates a parser. A zero minDate means
// DefaultMinSnapshotDate; a nil loc means UTC.
func NewSubscriberParser(catalog *models.PaperCatalog, resolver *snapshot.Resolver, minDate time.Time, loc *time.Location) *SubscriberParser {
	if minDate.IsZero() {
		minDate = DefaultMinSnapshotDate
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SubscriberParser{catalog: catalog, resolver: resolver, minDate: snapshot.Truncate(minDate), loc: loc}
}

// SnapshotDate returns the canonical Sunday a file is attributed to. A
// report timestamp in the filename wins over the receive time.
func (p *SubscriberParser) SnapshotDate(meta FileMeta) time.Time {
	if t, ok := snapshot.FromFilename(meta.Filename, p.loc); ok {
		return p.resolver.Resolve(t)
	}
	received := meta.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	return p.resolver.Resolve(received.In(p.loc))
}

// Parse reads a subscriber report. Structural problems return a
// *FormatError; bad rows are skipped and counted in Stats.
func (p *SubscriberParser) Parse(src io.Reader, meta FileMeta) (*SubscriberImport, error) {
	reader, err := NewReader(src, SubscriberLayout)
	if err != nil {
		return nil, err
	}

	snapDate := p.SnapshotDate(meta)
	week, year := snapshot.Week(snapDate)
	sourceDate := meta.ReceivedAt
	if sourceDate.IsZero() {
		sourceDate = time.Now()
	}
	sourceDate = snapshot.Truncate(sourceDate.In(p.loc))
	beforeCutoff := snapDate.Before(p.minDate)

	imp := &SubscriberImport{SnapshotDate: snapDate, Stats: newStats()}
	agg := NewAggregator()
	seen := make(map[string]struct{})

	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		imp.Stats.RowsRead++

		d := decode(row)
		subNum := d.requiredCode(ColSubNum)
		paperCode := d.requiredCode(ColEdition)
		if err := d.Err(); err != nil {
			imp.Stats.skipErr(err)
			continue
		}
		if beforeCutoff {
			imp.Stats.skip(ReasonBeforeCutoff, nil)
			continue
		}

		paper := p.catalog.Lookup(paperCode)
		dupKey := subNum + "|" + paper.Code
		if _, dup := seen[dupKey]; dup {
			imp.Stats.skip(ReasonDuplicate, &ValidationError{Line: row.Line, Field: ColSubNum, Reason: ReasonDuplicate, Value: subNum})
			continue
		}
		seen[dupKey] = struct{}{}
		zone := d.optional(ColZone)
		onVacation := IsVacationZone(zone)

		rec := models.SubscriberRecord{
			SnapshotDate:       snapDate,
			WeekNum:            week,
			Year:               year,
			SubNum:             subNum,
			PaperCode:          paper.Code,
			PaperName:          paper.Name,
			BusinessUnit:       paper.BusinessUnit,
			Name:               d.optional(ColName),
			Route:              d.optional(ColRoute),
			RateName:           zone,
			SubscriptionLength: d.optional(ColLength),
			DeliveryType:       ClassifyDelivery(d.optional(ColDelivery)),
			PaymentStatus:      d.optional(ColPayment),
			BeginDate:          d.optionalDate(ColBegin),
			PaidThru:           d.optionalDate(ColPaidThru),
			DailyRate:          d.currency(ColDailyRate),
			LastPaymentAmount:  d.currency(ColLastPay),
			OnVacation:         onVacation,
			Address:            d.optional(ColAddress),
			CityStatePostal:    d.optional(ColCityStatePostal),
			Phone:              d.optional(ColPhone),
			Email:              d.optional(ColEmail),
			ABC:                d.optional(ColABC),
			IssueCode:          d.optional(ColIssue),
			LoginID:            d.optional(ColLoginID),
			LastLogin:          d.optionalDate(ColLastLogin),
			SourceFilename:     meta.Filename,
			SourceDate:         sourceDate,
		}

		agg.Add(&rec)
		imp.Subscribers = append(imp.Subscribers, rec)
		imp.Stats.Imported++
	}

	if len(imp.Subscribers) == 0 {
		return imp, &FormatError{Report: SubscriberLayout.Report, Err: ErrNoRecords}
	}
	imp.Snapshots = agg.Flush()
	return imp, nil
}

// Batch converts the import into a write batch for the store.
func (imp *SubscriberImport) Batch(uploadID int64, filename string) models.SnapshotBatch {
	subs := imp.Subscribers
	for i := range subs {
		subs[i].UploadID = uploadID
	}
	return models.SnapshotBatch{
		UploadID:    uploadID,
		Filename:    filename,
		Snapshots:   imp.Snapshots,
		Subscribers: subs,
	}
}
