// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package cache

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/circulation/internal/config"
)

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get(missing) hit, want miss")
	}
	c.Set(ctx, "k", []byte("v"))
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Errorf("Get(k) = %q, %v, want v, true", got, ok)
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", stats)
	}
	if rate := c.HitRate(); rate != 50 {
		t.Errorf("HitRate() = %v, want 50", rate)
	}
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set(ctx, "k", []byte("v"))

	now = now.Add(59 * time.Second)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("entry expired early")
	}
	now = now.Add(2 * time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expired entry still returned")
	}
	if ev := c.GetStats().Evictions; ev != 1 {
		t.Errorf("Evictions = %d, want 1", ev)
	}
}

func TestMemoryCleanup(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2025, 12, 9, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set(ctx, "old", []byte("1"))
	now = now.Add(30 * time.Second)
	c.Set(ctx, "new", []byte("2"))
	now = now.Add(45 * time.Second)

	c.cleanup()
	stats := c.GetStats()
	if stats.TotalKeys != 1 || stats.Evictions != 1 {
		t.Errorf("after cleanup stats = %+v, want 1 key 1 eviction", stats)
	}
	if !stats.LastCleanup.Equal(now) {
		t.Errorf("LastCleanup = %v, want %v", stats.LastCleanup, now)
	}
}

func TestMemoryFlush(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))
	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("entry survived Flush")
	}
	if n := c.GetStats().TotalKeys; n != 0 {
		t.Errorf("TotalKeys = %d, want 0", n)
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(ctx, "k", []byte("v"))
				c.Get(ctx, "k")
				if j%25 == 0 {
					_ = c.Flush(ctx)
				}
			}
		}()
	}
	wg.Wait()
}

func TestMemoryCloseTwice(t *testing.T) {
	c := NewMemory(0)
	c.Close()
	c.Close()
	if c.ttl != defaultTTL {
		t.Errorf("ttl = %v, want default %v", c.ttl, defaultTTL)
	}
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"))
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Nop cache returned a value")
	}
	if c.Backend() != BackendNone {
		t.Errorf("Backend() = %q, want %q", c.Backend(), BackendNone)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{"", BackendMemory, false},
		{"memory", BackendMemory, false},
		{"NONE", BackendNone, false},
		{"memcached", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c, err := New(config.CacheConfig{Backend: tt.backend, TTL: time.Minute})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if c.Backend() != tt.want {
				t.Errorf("Backend() = %q, want %q", c.Backend(), tt.want)
			}
			if m, ok := c.(*Memory); ok {
				m.Close()
			}
		})
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		Action string
		Papers []string
	}
	a := GenerateKey("analytics", params{"overview", []string{"TJ"}})
	b := GenerateKey("analytics", params{"overview", []string{"TJ"}})
	c := GenerateKey("analytics", params{"overview", []string{"TA"}})

	if a != b {
		t.Errorf("equal params gave %q and %q", a, b)
	}
	if a == c {
		t.Error("different params gave the same key")
	}
	if !strings.HasPrefix(a, "analytics:") {
		t.Errorf("key %q lacks method prefix", a)
	}
	if len(a) != len("analytics:")+32 {
		t.Errorf("key %q has unexpected length", a)
	}
}
