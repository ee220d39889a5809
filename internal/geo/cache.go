package geo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/folio/folio/internal/metrics"
)

// Store persists resolved locations keyed by an opaque IP digest.
type Store interface {
	GetLocation(ctx context.Context, key string) (*Location, error)
	SetLocation(ctx context.Context, key string, loc Location, ttl time.Duration) error
}

// CachedResolver fronts a Resolver with a Store. Only real locations are
// cached so a transient outage is retried on the next request.
type CachedResolver struct {
	next    Resolver
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewCachedResolver creates a caching resolver.
func NewCachedResolver(next Resolver, store Store, ttl time.Duration, logger *slog.Logger, recorder metrics.Recorder) *CachedResolver {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CachedResolver{
		next:    next,
		store:   store,
		ttl:     ttl,
		logger:  logger.With("component", "geo.cache"),
		metrics: recorder,
	}
}

// Resolve implements Resolver.
func (r *CachedResolver) Resolve(ctx context.Context, ip string) Location {
	if IsPrivate(ip) {
		return r.next.Resolve(ctx, ip)
	}

	key := CacheKey(ip)
	if cached, err := r.store.GetLocation(ctx, key); err != nil {
		r.logger.Debug("geo cache read failed", "error", err)
	} else if cached != nil {
		r.metrics.IncGeoLookup("cache", "cache_hit")
		return *cached
	}

	loc := r.next.Resolve(ctx, ip)
	if loc.IsUnknown() {
		return loc
	}

	if err := r.store.SetLocation(ctx, key, loc, r.ttl); err != nil {
		r.logger.Debug("geo cache write failed", "error", err)
	}
	return loc
}

// CacheKey hashes ip so raw addresses never reach the cache.
func CacheKey(ip string) string {
	h := sha256.Sum256([]byte("geo:" + ip))
	return hex.EncodeToString(h[:16])
}
