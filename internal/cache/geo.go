package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/folio/folio/internal/geo"
)

func geoKey(digest string) string {
	return key("geo", digest)
}

// GetLocation returns a cached location, or nil on a miss.
func (c *Cache) GetLocation(ctx context.Context, digest string) (*geo.Location, error) {
	result, err := c.client.HGetAll(ctx, geoKey(digest)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(result) == 0 || result["country"] == "" {
		return nil, nil
	}

	return &geo.Location{
		Country:     result["country"],
		CountryCode: result["country_code"],
		City:        result["city"],
		Region:      result["region"],
	}, nil
}

// SetLocation stores a location for ttl.
func (c *Cache) SetLocation(ctx context.Context, digest string, loc geo.Location, ttl time.Duration) error {
	k := geoKey(digest)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, map[string]any{
			"country":      loc.Country,
			"country_code": loc.CountryCode,
			"city":         loc.City,
			"region":       loc.Region,
		})
		pipe.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set location failed: %w", err)
	}
	return nil
}
