// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/circulation/internal/analytics"
	"github.com/tomtom215/circulation/internal/auth"
	"github.com/tomtom215/circulation/internal/database"
	"github.com/tomtom215/circulation/internal/ingest"
	"github.com/tomtom215/circulation/internal/validation"
)

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooLarge           = "PAYLOAD_TOO_LARGE"
	ErrCodeInvalidFormat      = "INVALID_FORMAT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// errUploadTooLarge is returned when a multipart body exceeds the upload
// limit.
var errUploadTooLarge = errors.New("upload exceeds the size limit")

// writeServiceError maps a domain error to its status and envelope code.
// Persistence and unexpected errors are logged and answered with a generic
// message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var (
		formatErr  *ingest.FormatError
		paramErr   *analytics.ParamError
		reqErr     *validation.RequestValidationError
		persistErr *database.PersistenceError
	)
	switch {
	case errors.As(err, &reqErr):
		writeValidationError(rw, reqErr)
	case errors.As(err, &formatErr):
		rw.ErrorWithDetails(http.StatusUnprocessableEntity, ErrCodeInvalidFormat, formatErr.Error(), formatDetails(formatErr))
	case errors.As(err, &paramErr):
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, paramErr.Error(),
			map[string]interface{}{"field": paramErr.Param})
	case errors.Is(err, ingest.ErrUnknownReport):
		rw.Error(http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, analytics.ErrNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, errUploadTooLarge):
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodeTooLarge, err.Error())
	case errors.Is(err, auth.ErrTooManyAttempts):
		rw.Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, err.Error())
	case auth.IsAuthError(err):
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.As(err, &persistErr), errors.Is(err, database.ErrUnavailable):
		rw.DatabaseError(err)
	case errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusServiceUnavailable, ErrCodeTimeout, "The request timed out")
	default:
		logOf(r).Error().Err(err).Msg("Unhandled request error")
		rw.InternalError("An internal error occurred")
	}
}

func writeValidationError(rw *ResponseWriter, ve *validation.RequestValidationError) {
	apiErr := ve.ToAPIError()
	var details interface{}
	if apiErr.Details != nil {
		details = apiErr.Details
	}
	rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, details)
}

func formatDetails(fe *ingest.FormatError) interface{} {
	if len(fe.Missing) == 0 {
		return nil
	}
	return map[string]interface{}{"missing_columns": fe.Missing}
}

// writeAuthError renders authentication middleware failures in the API
// envelope.
func writeAuthError(w http.ResponseWriter, r *http.Request, status int, err error) {
	code := ErrCodeUnauthorized
	if status == http.StatusTooManyRequests {
		code = ErrCodeTooManyRequests
	}
	NewResponseWriter(w, r).Error(status, code, err.Error())
}

func paramError(param, reason string) error {
	return &analytics.ParamError{Param: param, Reason: reason}
}
