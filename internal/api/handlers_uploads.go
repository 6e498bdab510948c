// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/circulation/internal/models"
	"github.com/tomtom215/circulation/internal/validation"
)

const (
	defaultUploadsLimit = 50
	maxUploadsLimit     = 500
	maxFlagBodyBytes    = 64 << 10
)

// RecentUploads handles GET /uploads?limit=N.
func (h *Handler) RecentUploads(w http.ResponseWriter, r *http.Request) {
	limit := defaultUploadsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxUploadsLimit {
			writeServiceError(w, r, paramError("limit", "must be between 1 and 500"))
			return
		}
		limit = n
	}

	uploads, err := h.store.RecentUploads(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if uploads == nil {
		uploads = []models.RawUpload{}
	}
	NewResponseWriter(w, r).Success(uploads)
}

// SetRateFlag handles POST /rates/flags. A changed flag alters the market
// rate, so cached analytics are dropped.
func (h *Handler) SetRateFlag(w http.ResponseWriter, r *http.Request) {
	var flag models.RateFlag
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFlagBodyBytes))
	if err := dec.Decode(&flag); err != nil {
		NewResponseWriter(w, r).BadRequest("Invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&flag); verr != nil {
		writeServiceError(w, r, verr)
		return
	}

	if err := h.store.SetRateFlag(r.Context(), flag); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.cache.Flush(r.Context()); err != nil {
		logOf(r).Warn().Err(err).Msg("Failed to flush analytics cache after rate flag change")
	}

	rc := NewRequestContext(r)
	log := rc.Logger(r)
	log.Info().
		Str("paper_code", flag.PaperCode).
		Str("zone", flag.Zone).
		Str("rate_name", flag.RateName).
		Bool("is_legacy", flag.IsLegacy).
		Bool("is_ignored", flag.IsIgnored).
		Bool("is_special", flag.IsSpecial).
		Msg("Rate flag updated")
	NewResponseWriter(w, r).Success(flag)
}
