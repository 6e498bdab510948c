// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"errors"
	"fmt"
	"time"
)

// decoder extracts typed fields from one row. The first failure sticks and
// later reads return zero values, so a row can be decoded in one block and
// checked once.
type decoder struct {
	row Row
	err error
}

func decode(row Row) *decoder { return &decoder{row: row} }

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// required returns a non-blank value of a required column.
func (d *decoder) required(col string) string {
	if d.err != nil {
		return ""
	}
	v, err := d.row.Required(col)
	if err != nil {
		if errors.Is(err, ErrUndeclaredColumn) {
			err = fmt.Errorf("%s: %w", col, err)
		}
		d.fail(err)
		return ""
	}
	return v
}

// requiredCode is required() upper-cased.
func (d *decoder) requiredCode(col string) string {
	return normalizeCode(d.required(col))
}

// requiredDate parses a required date column.
func (d *decoder) requiredDate(col string) time.Time {
	v := d.required(col)
	if d.err != nil {
		return time.Time{}
	}
	t, ok := ParseDate(v)
	if !ok {
		d.fail(&ValidationError{Line: d.row.Line, Field: col, Reason: ReasonInvalidDate, Value: v})
		return time.Time{}
	}
	return t
}

func (d *decoder) optional(col string) string {
	return d.row.Optional(col)
}

func (d *decoder) optionalDate(col string) *time.Time {
	return optionalDate(d.row.Optional(col))
}

func (d *decoder) currency(col string) *float64 {
	return ParseCurrency(d.row.Optional(col))
}

// Err returns the first decoding failure.
func (d *decoder) Err() error { return d.err }
