// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by all callers; it caches struct
// metadata after the first use. Errors name fields by their query or json
// tag so messages match what the client sent.
//
// Custom tags:
//   - isodate: YYYY-MM-DD
//   - papercode: two to four upper-case letters
//
// Example:
//
//	type overviewRequest struct {
//	    Date    string `query:"date" validate:"omitempty,isodate"`
//	    Compare string `query:"compare" validate:"omitempty,oneof=yoy previous none"`
//	}
//
// A failed validation is converted with ToAPIError into a VALIDATION_ERROR
// with per-field details.
package validation
