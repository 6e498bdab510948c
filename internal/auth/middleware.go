// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package auth

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tomtom215/circulation/internal/config"
	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/metrics"
)

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, err error)

// Authenticator enforces the configured auth mode and issues tokens.
type Authenticator struct {
	mode    AuthMode
	basic   *BasicAuthManager
	jwt     *JWTManager
	limiter *LoginLimiter
	onError ErrorWriter
}

// NewAuthenticator builds the managers the mode needs.
func NewAuthenticator(cfg *config.SecurityConfig) (*Authenticator, error) {
	mode, err := ParseAuthMode(cfg.AuthMode)
	if err != nil {
		return nil, err
	}
	a := &Authenticator{
		mode:    mode,
		limiter: NewLoginLimiter(cfg.LoginAttemptsPerMinute),
		onError: plainError,
	}
	if mode == AuthModeNone {
		return a, nil
	}

	if a.basic, err = NewBasicAuthManager(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("admin account: %w", err)
	}
	if mode == AuthModeJWT {
		if a.jwt, err = NewJWTManager(cfg); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Mode returns the active auth mode.
func (a *Authenticator) Mode() AuthMode { return a.mode }

// SetErrorWriter replaces the plain-text failure renderer.
func (a *Authenticator) SetErrorWriter(fn ErrorWriter) {
	if fn != nil {
		a.onError = fn
	}
}

func plainError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	http.Error(w, err.Error(), status)
}

// Middleware authenticates the request and stores the Subject in its
// context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			subject *Subject
			status  int
			err     error
		)
		switch a.mode {
		case AuthModeNone:
			subject = &Subject{Username: AnonymousUsername, Mode: AuthModeNone}
		case AuthModeBasic:
			subject, status, err = a.authenticateBasic(w, r)
		default:
			subject, status, err = a.authenticateJWT(r)
		}
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("mode", a.mode.String()).Msg("Authentication failed")
			a.onError(w, r, status, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	})
}

func (a *Authenticator) authenticateBasic(w http.ResponseWriter, r *http.Request) (*Subject, int, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", a.basic.WWWAuthenticate())
		return nil, http.StatusUnauthorized, ErrNoCredentials
	}
	ip := ClientIP(r)
	if a.limiter.Blocked(ip) {
		metrics.AuthAttempts.WithLabelValues(string(AuthModeBasic), "locked").Inc()
		return nil, http.StatusTooManyRequests, ErrTooManyAttempts
	}
	if !a.basic.Verify(username, password) {
		a.limiter.Allow(ip)
		metrics.AuthAttempts.WithLabelValues(string(AuthModeBasic), "failure").Inc()
		w.Header().Set("WWW-Authenticate", a.basic.WWWAuthenticate())
		return nil, http.StatusUnauthorized, ErrInvalidCredentials
	}
	return &Subject{Username: username, Mode: AuthModeBasic}, 0, nil
}

func (a *Authenticator) authenticateJWT(r *http.Request) (*Subject, int, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, http.StatusUnauthorized, err
	}
	claims, err := a.jwt.ValidateToken(token)
	if err != nil {
		return nil, http.StatusUnauthorized, err
	}
	return &Subject{Username: claims.Username, Mode: AuthModeJWT, TokenID: claims.ID}, 0, nil
}

// bearerToken reads the Authorization header, falling back to the token
// cookie.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if c, err := r.Cookie("token"); err == nil && c.Value != "" {
			return c.Value, nil
		}
		return "", ErrNoCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidCredentials)
	}
	return token, nil
}

// Login checks the operator credentials and issues a token. Only jwt mode
// issues tokens.
func (a *Authenticator) Login(ip, username, password string) (*Token, error) {
	if a.jwt == nil {
		return nil, fmt.Errorf("login is only available in jwt mode")
	}
	if !a.limiter.Allow(ip) {
		metrics.AuthAttempts.WithLabelValues(string(AuthModeJWT), "locked").Inc()
		return nil, ErrTooManyAttempts
	}
	if !a.basic.Verify(username, password) {
		metrics.AuthAttempts.WithLabelValues(string(AuthModeJWT), "failure").Inc()
		return nil, ErrInvalidCredentials
	}
	token, err := a.jwt.GenerateToken(username)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues(string(AuthModeJWT), "success").Inc()
	return token, nil
}

// IsAuthError reports whether err is a credential failure rather than an
// internal error.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrExpiredCredentials) || errors.Is(err, ErrTooManyAttempts)
}

// ClientIP returns the host part of RemoteAddr. Proxy headers are
// resolved earlier by the RealIP middleware for trusted proxies.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
