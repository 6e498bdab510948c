// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/tomtom215/circulation/internal/models"
)

// Renewal report columns.
const (
	ColSubID     = "Sub ID"
	ColStat      = "Stat"
	ColRenewalEd = "Ed."
	ColIssueDate = "Issue Date"
)

// issueRowMarker is the second cell of a per-day summary row.
const issueRowMarker = "ISSUE"

// Positional layout of the count blocks. Each block holds expiring,
// renewed, stopped and renewal percentage.
var typeBlocks = []struct {
	Type  string
	Start int
}{
	{models.SubscriptionRegular, 5},
	{models.SubscriptionMonthly, 9},
	{models.SubscriptionComplimentary, 13},
}

// RenewalLayout is the Renewal/Churn report.
var RenewalLayout = Layout{
	Report:       "renewal report",
	HeaderMarker: ColSubID,
	Columns: []Column{
		{Name: ColSubID, Required: true},
		{Name: ColStat, Required: true},
		{Name: ColRenewalEd, Required: true},
		{Name: ColIssueDate, Required: true},
	},
	FooterMarkers: []string{"Total", "Report"},
}

// RenewalImport is the parsed form of one renewal report.
type RenewalImport struct {
	Events        []models.RenewalEvent
	Summaries     []models.ChurnSummary
	DuplicateRows int
	ByPublication map[string]int
	ByType        map[string]int
	MinDate       time.Time
	MaxDate       time.Time
	Stats         ImportStats
}

// DateRange formats the event date span, or "" when there are no events.
func (imp *RenewalImport) DateRange() string {
	if imp.MinDate.IsZero() {
		return ""
	}
	if imp.MinDate.Equal(imp.MaxDate) {
		return imp.MinDate.Format("2006-01-02")
	}
	return imp.MinDate.Format("2006-01-02") + " to " + imp.MaxDate.Format("2006-01-02")
}

// ParseRenewals reads a renewal report into events and churn summaries.
func ParseRenewals(src io.Reader, filename string) (*RenewalImport, error) {
	reader, err := NewReader(src, RenewalLayout)
	if err != nil {
		return nil, err
	}

	imp := &RenewalImport{
		ByPublication: make(map[string]int),
		ByType: map[string]int{
			models.SubscriptionRegular:       0,
			models.SubscriptionMonthly:       0,
			models.SubscriptionComplimentary: 0,
		},
		Stats: newStats(),
	}
	seen := make(map[string]struct{})
	summaries := make(map[string]int)

	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if row.First() == "" && strings.EqualFold(row.At(1), issueRowMarker) {
			imp.addSummaries(row, summaries)
			continue
		}
		imp.Stats.RowsRead++

		d := decode(row)
		subNum := d.requiredCode(ColSubID)
		status := d.requiredCode(ColStat)
		paperCode := d.requiredCode(ColRenewalEd)
		eventDate := d.requiredDate(ColIssueDate)
		if err := d.Err(); err != nil {
			imp.Stats.skipErr(err)
			continue
		}
		if status != models.RenewalStatusRenew && status != models.RenewalStatusExpire {
			imp.Stats.skip(ReasonInvalidStatus, &ValidationError{Line: row.Line, Field: ColStat, Reason: ReasonInvalidStatus, Value: status})
			continue
		}
		subType, ok := subscriptionType(row)
		if !ok {
			imp.Stats.skip(ReasonUnknownType, nil)
			continue
		}

		key := eventDate.Format("2006-01-02") + "|" + subNum + "|" + paperCode + "|" + status
		if _, dup := seen[key]; dup {
			imp.DuplicateRows++
			continue
		}
		seen[key] = struct{}{}

		imp.Events = append(imp.Events, models.RenewalEvent{
			EventDate:        eventDate,
			SubNum:           subNum,
			PaperCode:        paperCode,
			Status:           status,
			SubscriptionType: subType,
			SourceFilename:   filename,
		})
		imp.ByPublication[paperCode]++
		imp.ByType[subType]++
		if imp.MinDate.IsZero() || eventDate.Before(imp.MinDate) {
			imp.MinDate = eventDate
		}
		if eventDate.After(imp.MaxDate) {
			imp.MaxDate = eventDate
		}
		imp.Stats.Imported++
	}

	if len(imp.Events) == 0 && len(imp.Summaries) == 0 && imp.DuplicateRows == 0 {
		return imp, &FormatError{Report: RenewalLayout.Report, Err: ErrNoRecords}
	}
	return imp, nil
}

// subscriptionType picks the type of the first block with a positive
// expiring count.
func subscriptionType(row Row) (string, bool) {
	for _, b := range typeBlocks {
		if ParseCount(row.At(b.Start)) > 0 {
			return b.Type, true
		}
	}
	return "", false
}

// addSummaries records one summary per type block with expiring > 0. A
// later row for the same key replaces an earlier one.
func (imp *RenewalImport) addSummaries(row Row, index map[string]int) {
	paperCode := normalizeCode(row.At(2))
	date, ok := ParseDate(row.At(4))
	if paperCode == "" || !ok {
		return
	}
	for _, b := range typeBlocks {
		expiring := ParseCount(row.At(b.Start))
		if expiring <= 0 {
			continue
		}
		rate := ParsePercent(row.At(b.Start + 3))
		s := models.ChurnSummary{
			SnapshotDate:     date,
			PaperCode:        paperCode,
			SubscriptionType: b.Type,
			ExpiringCount:    expiring,
			RenewedCount:     ParseCount(row.At(b.Start + 1)),
			StoppedCount:     ParseCount(row.At(b.Start + 2)),
			RenewalRate:      rate,
			ChurnRate:        round(100-rate, 2),
		}
		key := date.Format("2006-01-02") + "|" + paperCode + "|" + b.Type
		if i, dup := index[key]; dup {
			imp.Summaries[i] = s
			continue
		}
		index[key] = len(imp.Summaries)
		imp.Summaries = append(imp.Summaries, s)
	}
}
