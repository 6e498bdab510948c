// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/circulation/internal/auth"
	"github.com/tomtom215/circulation/internal/validation"
)

const maxLoginBodyBytes = 4 << 10

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// Login handles POST /auth/login. It issues a bearer token and sets it as
// an HttpOnly cookie for browser clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil || h.auth.Mode() != auth.AuthModeJWT {
		NewResponseWriter(w, r).NotFound("login is only available in jwt auth mode")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)).Decode(&req); err != nil {
		NewResponseWriter(w, r).BadRequest("Invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeServiceError(w, r, verr)
		return
	}

	rc := NewRequestContext(r)
	token, err := h.auth.Login(rc.ClientIP, req.Username, req.Password)
	if err != nil {
		logOf(r).Warn().Str("username", req.Username).Str("client_ip", rc.ClientIP).Err(err).Msg("Login failed")
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token.AccessToken,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
	logOf(r).Info().Str("username", req.Username).Msg("Operator logged in")
	NewResponseWriter(w, r).Success(token)
}
