package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/folio/folio/internal/metrics"
)

type fakeStore struct {
	mu      sync.Mutex
	calls   int
	seen    []time.Time
	posts   int64
	ads     int64
	postErr error
}

func (s *fakeStore) PublishDuePosts(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.seen = append(s.seen, now)
	return s.posts, s.postErr
}

func (s *fakeStore) ReconcileAdStatuses(_ context.Context, now time.Time) (int64, error) {
	return s.ads, nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_RecordsCounts(t *testing.T) {
	store := &fakeStore{posts: 2, ads: 3}
	rec := metrics.NewInMemory()
	w := NewWorker(store, time.Minute, discard(), rec)
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("X", 3600))
	w.now = func() time.Time { return fixed }

	w.RunOnce(context.Background())

	snap := rec.Snapshot()
	if snap.Reconciled["post"] != 2 || snap.Reconciled["ad"] != 3 {
		t.Errorf("Reconciled = %v", snap.Reconciled)
	}
	if len(store.seen) != 1 || store.seen[0].Location() != time.UTC {
		t.Errorf("pass should run in UTC, got %v", store.seen)
	}
}

func TestRunOnce_PostFailureStillReconcilesAds(t *testing.T) {
	store := &fakeStore{ads: 1, postErr: errors.New("boom")}
	rec := metrics.NewInMemory()
	w := NewWorker(store, time.Minute, discard(), rec)

	w.RunOnce(context.Background())

	snap := rec.Snapshot()
	if _, ok := snap.Reconciled["post"]; ok {
		t.Error("failed post pass should not be counted")
	}
	if snap.Reconciled["ad"] != 1 {
		t.Errorf("ad reconcile count = %d, want 1", snap.Reconciled["ad"])
	}
}

func TestWorker_RunAndShutdown(t *testing.T) {
	store := &fakeStore{}
	w := NewWorker(store, 10*time.Millisecond, discard(), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for store.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.callCount() < 2 {
		t.Fatalf("expected repeated passes, got %d", store.callCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestNewWorker_DefaultInterval(t *testing.T) {
	w := NewWorker(&fakeStore{}, 0, discard(), nil)
	if w.interval != DefaultInterval {
		t.Errorf("interval = %s, want %s", w.interval, DefaultInterval)
	}
}
