// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/circulation/internal/analytics"
	"github.com/tomtom215/circulation/internal/models"
)

// Rates export columns.
const (
	ColRateDesc      = "Rate.rr Online Desc"
	ColRateEdition   = "Rate.rr Edition"
	ColRateIssue     = "Rate.rr Issue"
	ColRateLength    = "Rate.rr Length"
	ColRateLenType   = "Rate.rr Len Type(m=month,Y-year,W=week)"
	ColRateZone      = "Rate.rr Zone"
	ColSubRateID     = "Sub Rate Id"
	ColEffectiveDate = "Effective Date"
	ColFullRate      = "Full Rate"
)

// LegacyRateAge is how old an effective date must be for a rate to be
// marked legacy automatically.
const LegacyRateAge = 2

// RatesLayout is the vendor rates export.
var RatesLayout = Layout{
	Report:       "rates export",
	HeaderMarker: ColRateEdition,
	Columns: []Column{
		{Name: ColRateDesc, Required: true},
		{Name: ColRateEdition, Required: true},
		{Name: ColRateIssue, Required: true},
		{Name: ColRateLength, Required: true},
		{Name: ColRateLenType, Required: true},
		{Name: ColRateZone, Required: true},
		{Name: ColSubRateID, Required: true},
		{Name: ColEffectiveDate, Required: true},
		{Name: ColFullRate, Required: true},
	},
}

// RatesImport is the parsed form of one rates export.
type RatesImport struct {
	Rates   []models.RateRecord
	ByPaper map[string]int
	MinDate time.Time
	MaxDate time.Time
	Stats   ImportStats
}

// DateRange formats the effective date span.
func (imp *RatesImport) DateRange() string {
	if imp.MinDate.IsZero() {
		return ""
	}
	if imp.MinDate.Equal(imp.MaxDate) {
		return imp.MinDate.Format("2006-01-02")
	}
	return imp.MinDate.Format("2006-01-02") + " to " + imp.MaxDate.Format("2006-01-02")
}

// ParseRates reads a rates export. now anchors the legacy cutoff.
func ParseRates(src io.Reader, now time.Time) (*RatesImport, error) {
	reader, err := NewReader(src, RatesLayout)
	if err != nil {
		return nil, err
	}

	legacyBefore := now.AddDate(-LegacyRateAge, 0, 0)
	imp := &RatesImport{ByPaper: make(map[string]int), Stats: newStats()}

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
		paperCode := d.requiredCode(ColRateEdition)
		lengthStr := d.required(ColRateLength)
		lenType := strings.ToUpper(d.required(ColRateLenType))
		zone := d.required(ColRateZone)
		if err := d.Err(); err != nil {
			imp.Stats.skipErr(err)
			continue
		}

		var amount float64
		if v := d.currency(ColFullRate); v != nil {
			amount = *v
		}
		length, _ := strconv.ParseFloat(lengthStr, 64)
		effective := d.optionalDate(ColEffectiveDate)

		autoLegacy := amount == 0
		if effective != nil {
			if effective.Before(legacyBefore) {
				autoLegacy = true
			}
			if imp.MinDate.IsZero() || effective.Before(imp.MinDate) {
				imp.MinDate = *effective
			}
			if effective.After(imp.MaxDate) {
				imp.MaxDate = *effective
			}
		}

		rec := models.RateRecord{
			RateFlagKey: models.RateFlagKey{
				PaperCode:          paperCode,
				Zone:               zone,
				RateName:           d.optional(ColRateDesc),
				SubscriptionLength: lengthStr + lenType,
				RateAmount:         amount,
			},
			RateID:             d.optional(ColSubRateID),
			Length:             length,
			LengthType:         lenType,
			EffectiveDate:      effective,
			AutoDetectedLegacy: autoLegacy,
		}
		if amount > 0 && !autoLegacy {
			rec.AnnualizedRate = analytics.AnnualizedRate(amount, length, lenType)
		}

		imp.Rates = append(imp.Rates, rec)
		imp.ByPaper[paperCode]++
		imp.Stats.Imported++
	}

	if len(imp.Rates) == 0 {
		return imp, &FormatError{Report: RatesLayout.Report, Err: ErrNoRecords}
	}
	return imp, nil
}
