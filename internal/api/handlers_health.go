// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	GoVersion         string  `json:"go_version"`
	DatabaseConnected bool    `json:"database_connected"`
	AuthMode          string  `json:"auth_mode"`
	CacheBackend      string  `json:"cache_backend"`
	Uptime            float64 `json:"uptime_seconds"`
}

func (h *Handler) databaseConnected(ctx context.Context) bool {
	if h.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.store.Ping(ctx) == nil
}

// Health handles GET /health. The status is "degraded" while the database
// is unreachable; the response code stays 200 so dashboards keep loading.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.databaseConnected(r.Context())

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}
	authMode := "none"
	if h.auth != nil {
		authMode = h.auth.Mode().String()
	}

	NewResponseWriter(w, r).Success(HealthStatus{
		Status:            status,
		Version:           h.version,
		GoVersion:         runtime.Version(),
		DatabaseConnected: dbConnected,
		AuthMode:          authMode,
		CacheBackend:      h.cache.Backend(),
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}

// HealthLive handles GET /health/live. It only reports that the process
// serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /health/ready: 503 until the database answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.databaseConnected(r.Context()) {
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "database is not reachable")
		return
	}
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"ready":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}
