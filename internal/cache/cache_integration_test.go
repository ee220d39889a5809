package cache

import (
	"context"
	"testing"
	"time"

	"github.com/folio/folio/internal/geo"
	"github.com/folio/folio/internal/testutil"
)

func TestLocationRoundTrip(t *testing.T) {
	c := NewFromClient(testutil.OpenRedis(t))
	ctx := context.Background()

	miss, err := c.GetLocation(ctx, "missing")
	if err != nil || miss != nil {
		t.Fatalf("GetLocation(missing) = %v, %v", miss, err)
	}

	loc := geo.Location{Country: "Japan", CountryCode: "JP", City: "Tokyo", Region: "Tokyo"}
	if err := c.SetLocation(ctx, "k1", loc, time.Minute); err != nil {
		t.Fatalf("SetLocation() error = %v", err)
	}

	got, err := c.GetLocation(ctx, "k1")
	if err != nil {
		t.Fatalf("GetLocation() error = %v", err)
	}
	if got == nil || *got != loc {
		t.Errorf("GetLocation() = %+v, want %+v", got, loc)
	}

	ttl := c.Client().TTL(ctx, geoKey("k1")).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected TTL %s", ttl)
	}
}

func TestCheckIPRateLimit_Burst(t *testing.T) {
	c := NewFromClient(testutil.OpenRedis(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := c.CheckIPRateLimit(ctx, "track", "203.0.113.5", 1, 3)
		if err != nil {
			t.Fatalf("CheckIPRateLimit() error = %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, err := c.CheckIPRateLimit(ctx, "track", "203.0.113.5", 1, 3)
	if err != nil {
		t.Fatalf("CheckIPRateLimit() error = %v", err)
	}
	if res.Allowed {
		t.Error("request beyond burst should be rejected")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %s, want > 0", res.RetryAfter)
	}

	// Scopes are independent buckets.
	res, _ = c.CheckIPRateLimit(ctx, "leads", "203.0.113.5", 1, 3)
	if !res.Allowed {
		t.Error("a different scope should have its own bucket")
	}
}
