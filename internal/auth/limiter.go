// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter bounds login attempts per client IP. Idle entries are swept
// on access once per idle period.
type LoginLimiter struct {
	limiters  map[string]*limiterEntry
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLoginLimiter allows perMinute attempts per IP, refilled evenly. Zero
// or negative disables limiting.
func NewLoginLimiter(perMinute int) *LoginLimiter {
	l := &LoginLimiter{
		limiters: make(map[string]*limiterEntry),
		burst:    perMinute,
		idle:     time.Hour,
		now:      time.Now,
	}
	if perMinute > 0 {
		l.rate = rate.Every(time.Minute / time.Duration(perMinute))
	}
	l.lastSweep = l.now()
	return l
}

// Allow consumes one attempt for ip.
func (l *LoginLimiter) Allow(ip string) bool {
	if l.burst <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entry(ip, now).AllowN(now, 1)
}

// Blocked reports whether ip has no attempts left, without consuming one.
func (l *LoginLimiter) Blocked(ip string) bool {
	if l.burst <= 0 {
		return false
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entry(ip, now).TokensAt(now) < 1
}

// entry must be called with mu held.
func (l *LoginLimiter) entry(ip string, now time.Time) *rate.Limiter {
	if now.Sub(l.lastSweep) >= l.idle {
		threshold := now.Add(-l.idle)
		for k, e := range l.limiters {
			if e.lastAccess.Before(threshold) {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}
	e, ok := l.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = e
	}
	e.lastAccess = now
	return e.limiter
}

// Len returns the number of tracked IPs.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
