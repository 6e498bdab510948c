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

// Vacation report columns.
const (
	ColVacBegin = "VAC BEG."
	ColVacEnd   = "VAC END"
)

// VacationLayout is the Subscribers On Vacation report.
var VacationLayout = Layout{
	Report:       "vacation report",
	HeaderMarker: ColSubNum,
	Columns: []Column{
		{Name: ColSubNum, Required: true},
		{Name: ColVacBegin, Required: true},
		{Name: ColVacEnd, Required: true},
		{Name: ColEdition, Required: true},
	},
	FooterMarkers:        []string{"Total Vacations", "Report"},
	StopOnBlankFirstCell: true,
}

// VacationImport is the parsed form of one vacation report.
type VacationImport struct {
	Updates []models.VacationUpdate
	ByPaper map[string]int
	Stats   ImportStats
}

// VacationKey is the lookup key the store reports for unmatched updates.
func VacationKey(subNum, paperCode string) string {
	return subNum + "|" + paperCode
}

// ParseVacations reads a vacation report. Rows with missing fields, bad
// dates or an end before the start are skipped and counted.
func ParseVacations(src io.Reader) (*VacationImport, error) {
	reader, err := NewReader(src, VacationLayout)
	if err != nil {
		return nil, err
	}

	imp := &VacationImport{ByPaper: make(map[string]int), Stats: newStats()}
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
		begin := d.required(ColVacBegin)
		end := d.required(ColVacEnd)
		paperCode := d.requiredCode(ColEdition)
		if err := d.Err(); err != nil {
			imp.Stats.skipErr(err)
			continue
		}

		start, okStart := parseVacationDate(begin)
		stop, okStop := parseVacationDate(end)
		if !okStart || !okStop {
			value := begin
			if okStart {
				value = end
			}
			imp.Stats.skip(ReasonInvalidDate, &ValidationError{Line: row.Line, Field: ColVacBegin, Reason: ReasonInvalidDate, Value: value})
			continue
		}
		if stop.Before(start) {
			imp.Stats.skip(ReasonEndBeforeStart, &ValidationError{Line: row.Line, Field: ColVacEnd, Reason: ReasonEndBeforeStart, Value: subNum})
			continue
		}

		days := stop.Sub(start).Hours() / 24
		imp.Updates = append(imp.Updates, models.VacationUpdate{
			SubNum:        subNum,
			PaperCode:     paperCode,
			VacationStart: start,
			VacationEnd:   stop,
			VacationWeeks: round(days/7, 1),
		})
		imp.ByPaper[paperCode]++
	}

	if imp.Stats.RowsRead == 0 {
		return imp, &FormatError{Report: VacationLayout.Report, Err: ErrNoRecords}
	}
	return imp, nil
}

// parseVacationDate accepts only MM/DD/YY and MM/DD/YYYY.
func parseVacationDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if strings.Count(s, "/") != 2 {
		return time.Time{}, false
	}
	return parseSlashDate(s)
}
