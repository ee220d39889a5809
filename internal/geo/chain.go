package geo

import (
	"context"
	"log/slog"
	"net/netip"
	"time"

	"github.com/folio/folio/internal/metrics"
)

// DefaultTimeout bounds each provider attempt.
const DefaultTimeout = 5 * time.Second

// Chain tries providers in order and stops at the first success.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewChain creates a resolver over providers.
func NewChain(providers []Provider, timeout time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Chain{
		providers: providers,
		timeout:   timeout,
		logger:    logger.With("component", "geo.chain"),
		metrics:   recorder,
	}
}

// Resolve returns the location of ip, or Unknown. Private and loopback
// addresses never reach a provider.
func (c *Chain) Resolve(ctx context.Context, ip string) Location {
	if IsPrivate(ip) {
		c.metrics.IncGeoLookup("local", "private")
		return Unknown
	}
	addr, _ := netip.ParseAddr(ip)
	addr = addr.Unmap()

	start := time.Now()
	defer func() { c.metrics.ObserveGeoLookupDuration(time.Since(start)) }()

	for _, p := range c.providers {
		loc, err := c.attempt(ctx, p, addr)
		if err == nil {
			c.metrics.IncGeoLookup(p.Name(), "success")
			return loc
		}
		c.metrics.IncGeoLookup(p.Name(), "failure")
		c.logger.Debug("geo provider failed",
			"provider", p.Name(),
			"error", err,
		)
		if ctx.Err() != nil {
			break
		}
	}

	return Unknown
}

func (c *Chain) attempt(ctx context.Context, p Provider, addr netip.Addr) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return p.Lookup(ctx, addr)
}
