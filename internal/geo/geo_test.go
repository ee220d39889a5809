package geo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/folio/folio/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProvider struct {
	name  string
	loc   Location
	err   error
	block bool
	calls atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Lookup(ctx context.Context, ip netip.Addr) (Location, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return Location{}, ctx.Err()
	}
	return f.loc, f.err
}

var berlin = Location{Country: "Germany", CountryCode: "DE", City: "Berlin", Region: "Berlin"}

func TestIsPrivate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"192.168.1.1", true},
		{"10.0.0.5", true},
		{"172.16.4.2", true},
		{"169.254.10.1", true},
		{"fd00::1", true},
		{"fe80::1", true},
		{"::ffff:127.0.0.1", true},
		{"::ffff:10.1.2.3", true},
		{"0.0.0.0", true},
		{"", true},
		{"not-an-ip", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
		{"172.32.0.1", false},
	}

	for _, tt := range tests {
		if got := IsPrivate(tt.ip); got != tt.want {
			t.Errorf("IsPrivate(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestChain_PrivateShortCircuits(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "primary", loc: berlin}
	chain := NewChain([]Provider{p}, time.Second, testLogger(), nil)

	for _, ip := range []string{"127.0.0.1", "::1", "192.168.1.1", "10.0.0.5"} {
		if got := chain.Resolve(context.Background(), ip); got != Unknown {
			t.Errorf("Resolve(%s) = %+v, want Unknown", ip, got)
		}
	}
	if p.calls.Load() != 0 {
		t.Errorf("provider called %d times for private addresses", p.calls.Load())
	}
}

func TestChain_Fallback(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", err: ErrLookupFailed}
	secondary := &fakeProvider{name: "secondary", loc: berlin}
	rec := metrics.NewInMemory()
	chain := NewChain([]Provider{primary, secondary}, time.Second, testLogger(), rec)

	if got := chain.Resolve(context.Background(), "8.8.8.8"); got != berlin {
		t.Errorf("Resolve() = %+v, want %+v", got, berlin)
	}
	if primary.calls.Load() != 1 || secondary.calls.Load() != 1 {
		t.Errorf("calls primary=%d secondary=%d", primary.calls.Load(), secondary.calls.Load())
	}

	snap := rec.Snapshot()
	if snap.GeoLookups["primary/failure"] != 1 || snap.GeoLookups["secondary/success"] != 1 {
		t.Errorf("unexpected metrics: %v", snap.GeoLookups)
	}
}

func TestChain_StopsAtFirstSuccess(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", loc: berlin}
	secondary := &fakeProvider{name: "secondary", loc: Unknown}
	chain := NewChain([]Provider{primary, secondary}, time.Second, testLogger(), nil)

	chain.Resolve(context.Background(), "8.8.8.8")
	if secondary.calls.Load() != 0 {
		t.Error("secondary should not be called after primary success")
	}
}

func TestChain_AllFail(t *testing.T) {
	t.Parallel()

	chain := NewChain([]Provider{
		&fakeProvider{name: "a", err: errors.New("boom")},
		&fakeProvider{name: "b", err: ErrLookupFailed},
	}, time.Second, testLogger(), nil)

	if got := chain.Resolve(context.Background(), "8.8.8.8"); got != Unknown {
		t.Errorf("Resolve() = %+v, want Unknown", got)
	}
}

func TestChain_PerAttemptTimeout(t *testing.T) {
	t.Parallel()

	slow := &fakeProvider{name: "slow", block: true}
	fast := &fakeProvider{name: "fast", loc: berlin}
	chain := NewChain([]Provider{slow, fast}, 20*time.Millisecond, testLogger(), nil)

	start := time.Now()
	got := chain.Resolve(context.Background(), "8.8.8.8")
	if got != berlin {
		t.Errorf("Resolve() = %+v, want %+v", got, berlin)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Resolve took %s, per-attempt timeout not applied", elapsed)
	}
}

func TestBreakerProvider_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	inner := &fakeProvider{name: "flaky", err: ErrLookupFailed}
	rec := metrics.NewInMemory()
	b := NewBreakerProvider(inner, rec)
	addr := netip.MustParseAddr("8.8.8.8")

	for i := 0; i < 5; i++ {
		if _, err := b.Lookup(context.Background(), addr); err == nil {
			t.Fatal("expected failure")
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}

	_, err := b.Lookup(context.Background(), addr)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if inner.calls.Load() != 5 {
		t.Errorf("inner calls = %d, want 5", inner.calls.Load())
	}
	if rec.Snapshot().CircuitBreakerStates["geo-flaky"] != "open" {
		t.Errorf("breaker metric not updated: %v", rec.Snapshot().CircuitBreakerStates)
	}
}

type mapStore struct {
	mu   sync.Mutex
	data map[string]Location
}

func (m *mapStore) GetLocation(_ context.Context, key string) (*Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc, ok := m.data[key]; ok {
		return &loc, nil
	}
	return nil, nil
}

func (m *mapStore) SetLocation(_ context.Context, key string, loc Location, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = loc
	return nil
}

func TestCachedResolver(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "primary", loc: berlin}
	store := &mapStore{data: map[string]Location{}}
	r := NewCachedResolver(NewChain([]Provider{p}, time.Second, testLogger(), nil), store, time.Hour, testLogger(), nil)

	for i := 0; i < 3; i++ {
		if got := r.Resolve(context.Background(), "8.8.8.8"); got != berlin {
			t.Fatalf("Resolve() = %+v", got)
		}
	}
	if p.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls.Load())
	}
	for key := range store.data {
		if key == "8.8.8.8" {
			t.Error("raw IP must not be used as cache key")
		}
	}
}

func TestCachedResolver_DoesNotCacheUnknown(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "primary", err: ErrLookupFailed}
	store := &mapStore{data: map[string]Location{}}
	r := NewCachedResolver(NewChain([]Provider{p}, time.Second, testLogger(), nil), store, time.Hour, testLogger(), nil)

	r.Resolve(context.Background(), "8.8.8.8")
	r.Resolve(context.Background(), "8.8.8.8")

	if len(store.data) != 0 {
		t.Error("unknown locations should not be cached")
	}
	if p.calls.Load() != 2 {
		t.Errorf("provider calls = %d, want 2", p.calls.Load())
	}
}
