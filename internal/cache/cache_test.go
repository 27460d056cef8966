// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "reveal:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(net.JoinHostPort(host, port), "")
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	// Verify connection.
	ctx := context.Background()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestPageCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPageCache(client, 1*time.Minute)

	ctx := context.Background()

	// Miss.
	data, ok := pc.Get(ctx, ThemeKey(1))
	if ok {
		t.Error("expected cache miss")
	}
	if data != nil {
		t.Error("expected nil data on miss")
	}

	// Set.
	html := []byte(`<div class="gift-shuffle"></div>`)
	pc.Set(ctx, ThemeKey(1), html)

	// Hit.
	data, ok = pc.Get(ctx, ThemeKey(1))
	if !ok {
		t.Error("expected cache hit")
	}
	if string(data) != string(html) {
		t.Errorf("data mismatch: got %q, want %q", data, html)
	}
}

func TestPageCacheInvalidateTheme(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPageCache(client, 1*time.Minute)

	ctx := context.Background()

	pc.Set(ctx, ThemeKey(2), []byte("gift box"))
	pc.Set(ctx, ThemeKey(3), []byte("slot machine"))

	// Verify it's cached.
	if _, ok := pc.Get(ctx, ThemeKey(2)); !ok {
		t.Fatal("expected cache hit before invalidation")
	}

	pc.InvalidateTheme(ctx, 2)

	if _, ok := pc.Get(ctx, ThemeKey(2)); ok {
		t.Error("expected cache miss after invalidation")
	}
	if _, ok := pc.Get(ctx, ThemeKey(3)); !ok {
		t.Error("other themes should stay cached")
	}
}

func TestPageCacheInvalidateAll(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPageCache(client, 1*time.Minute)

	ctx := context.Background()

	for id := int64(1); id <= 4; id++ {
		pc.Set(ctx, ThemeKey(id), []byte("stage"))
	}

	pc.InvalidateAll(ctx)

	for id := int64(1); id <= 4; id++ {
		if _, ok := pc.Get(ctx, ThemeKey(id)); ok {
			t.Errorf("expected miss for theme %d after InvalidateAll", id)
		}
	}
}

func TestThemeKey(t *testing.T) {
	tests := []struct {
		id   int64
		want string
	}{
		{1, "theme:1"},
		{42, "theme:42"},
		{-1, "theme:-1"},
	}
	for _, tt := range tests {
		if got := ThemeKey(tt.id); got != tt.want {
			t.Errorf("ThemeKey(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestNewPageCacheDefaultTTL(t *testing.T) {
	client := testValkeyClient(t)

	// TTL = 0 should use default.
	pc := NewPageCache(client, 0)
	if pc.ttl != DefaultPageTTL {
		t.Errorf("expected DefaultPageTTL (%v), got %v", DefaultPageTTL, pc.ttl)
	}
}

func TestNilPageCache(t *testing.T) {
	var pc *PageCache
	ctx := context.Background()

	pc.Set(ctx, ThemeKey(1), []byte("<section></section>"))
	if _, ok := pc.Get(ctx, ThemeKey(1)); ok {
		t.Error("nil cache should always miss")
	}
	pc.InvalidateTheme(ctx, 1)
	pc.InvalidateAll(ctx)
}
