// Package reconcile periodically moves scheduled posts and dated ads into
// the state their timestamps imply.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/folio/folio/internal/metrics"
)

// DefaultInterval is the pause between passes.
const DefaultInterval = time.Minute

// Store is the subset of the repository the worker drives.
type Store interface {
	PublishDuePosts(ctx context.Context, now time.Time) (int64, error)
	ReconcileAdStatuses(ctx context.Context, now time.Time) (int64, error)
}

// Worker runs reconcile passes on a ticker.
type Worker struct {
	store    Store
	logger   *slog.Logger
	metrics  metrics.Recorder
	interval time.Duration
	now      func() time.Time

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

// NewWorker creates a reconcile worker. A non-positive interval uses
// DefaultInterval.
func NewWorker(store Store, interval time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		store:    store,
		logger:   logger.With("component", "reconcile.worker"),
		metrics:  recorder,
		interval: interval,
		now:      time.Now,
	}
}

// Run performs a pass immediately, then one per interval until ctx is
// cancelled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	w.logger.Info("reconcile worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("reconcile worker stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single pass. Failures are logged and retried on the
// next tick.
func (w *Worker) RunOnce(ctx context.Context) {
	now := w.now().UTC()

	posts, err := w.store.PublishDuePosts(ctx, now)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.logger.Error("publish due posts failed", "error", err)
		}
	} else {
		w.metrics.IncReconciled("post", int(posts))
		if posts > 0 {
			w.logger.Info("published scheduled posts", "count", posts)
		}
	}

	ads, err := w.store.ReconcileAdStatuses(ctx, now)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.logger.Error("reconcile ad statuses failed", "error", err)
		}
	} else {
		w.metrics.IncReconciled("ad", int(ads))
		if ads > 0 {
			w.logger.Info("updated ad statuses", "count", ads)
		}
	}
}

// Shutdown stops the loop and waits for the current pass.
// It matches server.ShutdownFunc.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("reconcile worker shutdown timed out")
		return ctx.Err()
	}
}
