//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/photoshare/photoshare/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}

func TestIntegrationIPRateLimit_BurstExhaustion(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	const burst = 5
	ip := fmt.Sprintf("203.0.113.%d", time.Now().UnixNano()%200)

	for i := 0; i < burst; i++ {
		result, err := c.CheckIPRateLimit(ctx, ip, 1, burst)
		if err != nil {
			t.Fatalf("CheckIPRateLimit failed: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d denied within burst of %d", i+1, burst)
		}
	}

	result, err := c.CheckIPRateLimit(ctx, ip, 1, burst)
	if err != nil {
		t.Fatalf("CheckIPRateLimit failed: %v", err)
	}
	if result.Allowed {
		t.Error("request beyond burst should be denied")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want positive", result.RetryAfter)
	}
}

func TestIntegrationIPRateLimit_IsolatedPerIP(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	const burst = 2
	first := "198.51.100.10"
	second := "198.51.100.20"

	for i := 0; i < burst; i++ {
		if _, err := c.CheckIPRateLimit(ctx, first, 1, burst); err != nil {
			t.Fatalf("CheckIPRateLimit failed: %v", err)
		}
	}

	result, err := c.CheckIPRateLimit(ctx, second, 1, burst)
	if err != nil {
		t.Fatalf("CheckIPRateLimit failed: %v", err)
	}
	if !result.Allowed {
		t.Error("exhausting one IP's bucket must not affect another IP")
	}
}
