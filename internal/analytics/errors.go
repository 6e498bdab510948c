// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package analytics

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested unit, paper or week has no
// stored data.
var ErrNotFound = errors.New("no data found")

// ParamError reports an invalid analytics request parameter.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

func paramErr(param, format string, args ...interface{}) error {
	return &ParamError{Param: param, Reason: fmt.Sprintf(format, args...)}
}
