package geo

import (
	"context"
	"net/netip"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/folio/folio/internal/metrics"
)

// BreakerProvider stops calling a provider that keeps failing.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[Location]
}

// NewBreakerProvider wraps next. The breaker opens after five consecutive
// failures and lets a trial request through after a minute.
func NewBreakerProvider(next Provider, recorder metrics.Recorder) *BreakerProvider {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	name := "geo-" + next.Name()
	recorder.SetCircuitBreakerState(name, gobreaker.StateClosed.String())

	cb := gobreaker.NewCircuitBreaker[Location](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			recorder.SetCircuitBreakerState(name, to.String())
		},
	})

	return &BreakerProvider{next: next, cb: cb}
}

// Name returns the wrapped provider's name.
func (b *BreakerProvider) Name() string {
	return b.next.Name()
}

// Lookup calls the wrapped provider unless the breaker is open.
func (b *BreakerProvider) Lookup(ctx context.Context, ip netip.Addr) (Location, error) {
	return b.cb.Execute(func() (Location, error) {
		return b.next.Lookup(ctx, ip)
	})
}

// State returns the breaker state.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}
