// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/tomtom215/circulation/internal/config"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(config.CacheConfig{
		Backend:   BackendRedis,
		RedisAddr: mr.Addr(),
		KeyPrefix: "circ:",
		TTL:       time.Minute,
	})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisGetSet(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	if _, ok := r.Get(ctx, "k"); ok {
		t.Error("Get on empty store hit")
	}
	r.Set(ctx, "k", []byte(`{"success":true}`))

	got, ok := r.Get(ctx, "k")
	if !ok || string(got) != `{"success":true}` {
		t.Errorf("Get(k) = %q, %v", got, ok)
	}
	if !mr.Exists("circ:k") {
		t.Error("key not stored under prefix")
	}
	if ttl := mr.TTL("circ:k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}
}

func TestRedisExpiry(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	r.Set(ctx, "k", []byte("v"))
	mr.FastForward(61 * time.Second)
	if _, ok := r.Get(ctx, "k"); ok {
		t.Error("expired key still returned")
	}
}

func TestRedisFlushKeepsForeignKeys(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 1200; i++ {
		r.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"))
	}
	if err := mr.Set("other:key", "keep"); err != nil {
		t.Fatal(err)
	}

	if err := r.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "other:key" {
		t.Errorf("keys after Flush = %v, want [other:key]", keys)
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(config.CacheConfig{RedisAddr: addr})
	if err == nil {
		t.Fatal("NewRedis against a closed server succeeded")
	}
}

func TestRedisReadErrorIsMiss(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	r.Set(ctx, "k", []byte("v"))
	mr.Close()
	if _, ok := r.Get(ctx, "k"); ok {
		t.Error("Get with server down hit")
	}
}
