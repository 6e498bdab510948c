// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"errors"
	"sort"
)

// maxSampleErrors bounds how many skipped-row messages are kept for the
// operator.
const maxSampleErrors = 10

// ImportStats counts what happened to each data row of a report.
type ImportStats struct {
	RowsRead    int            `json:"rows_read"`
	Imported    int            `json:"imported"`
	Skipped     int            `json:"skipped"`
	SkipReasons map[string]int `json:"skip_reasons"`
	Samples     []string       `json:"sample_errors,omitempty"`
}

func newStats() ImportStats {
	return ImportStats{SkipReasons: make(map[string]int)}
}

// skip counts a skipped row under reason.
func (s *ImportStats) skip(reason string, err error) {
	s.Skipped++
	s.SkipReasons[reason]++
	if err != nil && len(s.Samples) < maxSampleErrors {
		s.Samples = append(s.Samples, err.Error())
	}
}

// skipErr counts a row rejected by a decoder error.
func (s *ImportStats) skipErr(err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		s.skip(ve.Reason, ve)
		return
	}
	s.skip(ReasonMissingField, err)
}

// Reasons returns the skip reasons sorted by name.
func (s *ImportStats) Reasons() []string {
	out := make([]string, 0, len(s.SkipReasons))
	for r := range s.SkipReasons {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
