// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package api

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/circulation/internal/config"
	"github.com/tomtom215/circulation/internal/logging"
	"github.com/tomtom215/circulation/internal/metrics"
	"github.com/tomtom215/circulation/internal/middleware"
)

// APIPrefix is the mount point of the JSON API.
const APIPrefix = "/api/v1"

const slowRequestThreshold = 2 * time.Second

// Router assembles the HTTP routes and middleware.
type Router struct {
	cfg     *config.Config
	handler *Handler
}

// NewRouter creates a router for h.
func NewRouter(cfg *config.Config, h *Handler) *Router {
	if h.auth != nil {
		h.auth.SetErrorWriter(writeAuthError)
	}
	return &Router{cfg: cfg, handler: h}
}

// Handler builds the chi route tree.
//
// Global middleware runs for every request in order: request ID, trusted
// proxy resolution, access log, recoverer, CORS. The API group adds the
// Prometheus middleware, the per-IP rate limit and authentication.
func (router *Router) Handler() http.Handler {
	h := router.handler
	sec := router.cfg.Security

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(trustedRealIP(sec.TrustedProxies))
	r.Use(middleware.AccessLog(slowRequestThreshold))
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(sec.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.rateLimit())

		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})
		r.With(chimiddleware.Timeout(router.cfg.Server.Timeout)).Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			if h.auth != nil {
				r.Use(h.auth.Middleware)
			}

			// Imports hold the ingestion lock and are bounded by the body
			// size limit instead of the request timeout.
			r.Post("/upload/{kind}", h.Upload)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(router.cfg.Server.Timeout))
				r.Use(chimiddleware.Compress(5, "application/json"))

				r.Get("/analytics", h.Analytics)
				r.Get("/uploads", h.RecentUploads)
				r.Post("/rates/flags", h.SetRateFlag)
			})
		})
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           300,
	})
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// rateLimit limits API requests per client IP. Rejections are answered in
// the API envelope.
func (router *Router) rateLimit() func(http.Handler) http.Handler {
	sec := router.cfg.Security
	if sec.RateLimitDisabled || sec.RateLimitReqs <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		sec.RateLimitReqs,
		sec.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(APIPrefix).Inc()
			WriteError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded")
		}),
	)
}

// trustedRealIP applies chi's RealIP only to requests whose peer address is
// one of the trusted proxies (IPs or CIDR prefixes). Forwarding headers from
// anyone else are ignored.
func trustedRealIP(proxies []string) func(http.Handler) http.Handler {
	prefixes := parseProxies(proxies)
	return func(next http.Handler) http.Handler {
		if len(prefixes) == 0 {
			return next
		}
		realIP := chimiddleware.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if peerTrusted(r.RemoteAddr, prefixes) {
				realIP.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseProxies(proxies []string) []netip.Prefix {
	var out []netip.Prefix
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			if pfx, err := netip.ParsePrefix(p); err == nil {
				out = append(out, pfx.Masked())
				continue
			}
		} else if addr, err := netip.ParseAddr(p); err == nil {
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		logging.Warn().Str("proxy", p).Msg("Ignoring invalid trusted proxy")
	}
	return out
}

func peerTrusted(remoteAddr string, prefixes []netip.Prefix) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
