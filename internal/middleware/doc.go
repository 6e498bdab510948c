// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

/*
Package middleware provides the HTTP middleware specific to this service.

Components:
  - RequestID: accepts or generates X-Request-ID and seeds the request
    logger with it
  - PrometheusMetrics: request count, latency and in-flight gauge labelled
    by chi route pattern
  - AccessLog: one zerolog line per request, warning on slow requests

Generic concerns (real IP, panic recovery, timeouts, compression, CORS,
rate limiting) come from chi, go-chi/cors and go-chi/httprate. The api
package assembles the stack:

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(time.Second))
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimw.Recoverer)
*/
package middleware
