// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrHeaderNotFound means no row within the scan limit carried the
	// report's header marker.
	ErrHeaderNotFound = errors.New("header row not found")

	// ErrMissingColumns means the header lacks one or more required columns.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrNoRecords means the report parsed but produced nothing to import.
	ErrNoRecords = errors.New("no importable rows")

	// ErrUndeclaredColumn is a programming error: a field was read that the
	// layout does not declare.
	ErrUndeclaredColumn = errors.New("column not declared in layout")

	// ErrUnknownReport means a filename matched no known report pattern.
	ErrUnknownReport = errors.New("unknown report type")
)

// FormatError reports a structurally invalid file. The whole file is
// rejected and nothing is written.
type FormatError struct {
	Report  string
	Missing []string
	Err     error
}

func (e *FormatError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s: %v: %s", e.Report, e.Err, strings.Join(e.Missing, ", "))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Report, e.Err)
	default:
		return e.Report + ": invalid format"
	}
}

func (e *FormatError) Unwrap() error { return e.Err }

// IOError wraps a failure to read the uploaded stream.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// Row skip reasons. Skipped rows are counted, never fatal.
const (
	ReasonMissingField     = "missing_field"
	ReasonInvalidDate      = "invalid_date"
	ReasonEndBeforeStart   = "end_before_start"
	ReasonBeforeCutoff     = "before_cutoff"
	ReasonInvalidStatus    = "invalid_status"
	ReasonUnknownType      = "unknown_subscription_type"
	ReasonNoMatchingRecord = "no_matching_snapshot"
	ReasonDuplicate        = "duplicate_row"
)

// ValidationError describes why a single row was skipped.
type ValidationError struct {
	Line   int
	Field  string
	Reason string
	Value  string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("line %d: %s", e.Line, strings.ReplaceAll(e.Reason, "_", " "))
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Value != "" {
		msg += ": " + e.Value
	}
	return msg
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
