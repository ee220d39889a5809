package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/folio/folio/internal/metrics"
)

// ConsumerGroup is the stream consumer group shared by all workers.
const ConsumerGroup = "notify_workers"

const (
	batchSize       = 20
	blockTimeout    = 5 * time.Second
	sendTimeout     = 30 * time.Second
	claimEvery      = 30 * time.Second
	claimMinIdle    = 2 * time.Minute
	depthEvery      = 10 * time.Second
	deadLetterLimit = 1000
)

// NewConsumerID names this process within the consumer group.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "notify"
	}
	return host + "-" + ulid.Make().String()
}

// every gates a periodic task inside the poll loop.
type every struct {
	period time.Duration
	last   time.Time
}

func (e *every) due(now time.Time) bool {
	if e.period <= 0 {
		return false
	}
	if !e.last.IsZero() && now.Sub(e.last) < e.period {
		return false
	}
	e.last = now
	return true
}

// Worker reads the notification stream and hands each message to a Sender.
// Failed sends are retried with backoff, then moved to the dead-letter
// stream. Entries are acked once handled either way.
type Worker struct {
	redis    *redis.Client
	sender   Sender
	logger   *slog.Logger
	metrics  metrics.Recorder
	consumer string

	block       time.Duration
	maxAttempts int
	claim       every
	claimCursor string
	depth       every
	sleep       func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(client *redis.Client, sender Sender, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:       client,
		sender:      sender,
		logger:      logger.With("component", "notify.worker", "consumer_id", consumerID),
		metrics:     recorder,
		consumer:    consumerID,
		block:       blockTimeout,
		maxAttempts: DefaultMaxAttempts,
		claim:       every{period: claimEvery},
		claimCursor: "0-0",
		depth:       every{period: depthEvery},
		sleep:       sleepContext,
	}
}

// SetBlockTimeout changes how long one stream read waits for new entries.
func (w *Worker) SetBlockTimeout(d time.Duration) {
	if d > 0 {
		w.block = d
	}
}

// SetMaxAttempts changes how many sends are tried before dead-lettering.
func (w *Worker) SetMaxAttempts(n int) {
	if n > 0 {
		w.maxAttempts = n
	}
}

// Run polls until ctx is cancelled or Shutdown is called. It returns
// ctx.Err() when the parent context ends.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.done != nil {
		w.mu.Unlock()
		return errors.New("notify worker already running")
	}
	parent := ctx
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.mu.Unlock()
	defer close(w.done)

	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	w.logger.Info("notify worker started")

	for ctx.Err() == nil {
		if err := w.poll(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("notify poll failed", "error", err)
			_ = w.sleep(ctx, time.Second)
		}
	}

	w.logger.Info("notify worker stopped")
	return parent.Err()
}

// Shutdown stops the poll loop and waits for the message in flight.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("notify worker did not stop in time")
		return ctx.Err()
	}
}

func (w *Worker) poll(ctx context.Context) error {
	now := time.Now()
	if w.depth.due(now) {
		w.reportDepth(ctx)
	}

	var entries []redis.XMessage
	if w.claim.due(now) {
		claimed, err := w.claimStale(ctx)
		if err != nil {
			w.logger.Warn("reclaiming stale notifications failed", "error", err)
		}
		entries = claimed
	}
	if len(entries) == 0 {
		read, err := w.read(ctx)
		if err != nil {
			return err
		}
		entries = read
	}

	for _, entry := range entries {
		if err := w.handle(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// handle acks every entry it finishes with. An entry interrupted by
// cancellation stays pending so another consumer can reclaim it.
func (w *Worker) handle(ctx context.Context, entry redis.XMessage) error {
	msg, reason, err := parseMessage(entry)
	if err == nil {
		err = w.deliver(ctx, msg)
		reason = "delivery_failed"
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if err != nil {
		w.deadLetter(ctx, entry, reason, err)
	} else {
		w.metrics.IncNotificationProcessed("success")
	}

	if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, entry.ID).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", entry.ID, err)
	}
	return nil
}

func (w *Worker) deliver(ctx context.Context, msg Message) error {
	var err error
	for attempt := 0; !IsExhausted(attempt, w.maxAttempts); attempt++ {
		if attempt > 0 {
			delay := NextRetryDelay(attempt - 1)
			w.logger.Warn("notification send failed, retrying",
				"kind", msg.Kind, "attempt", attempt, "backoff", delay, "error", err)
			if serr := w.sleep(ctx, delay); serr != nil {
				return serr
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err = w.sender.Send(sendCtx, msg)
		cancel()
		if err == nil {
			w.logger.Info("notification sent", "kind", msg.Kind, "lead_id", msg.LeadID)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	w.metrics.IncNotificationProcessed("failed")
	return err
}

// parseMessage decodes a stream entry. On failure it also returns the
// dead-letter reason.
func parseMessage(entry redis.XMessage) (Message, string, error) {
	payload, ok := entry.Values["payload"].(string)
	if !ok {
		return Message{}, "invalid_format", errors.New("payload field missing or not a string")
	}
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return Message{}, "unmarshal_error", err
	}
	if err := msg.Validate(); err != nil {
		return Message{}, "validation_error", err
	}
	return msg, "", nil
}

func (w *Worker) read(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumer,
		Streams:  []string{StreamKey, ">"},
		Count:    batchSize,
		Block:    w.block,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read stream: %w", err)
	case len(streams) == 0:
		return nil, nil
	}
	return streams[0].Messages, nil
}

// claimStale takes over entries another consumer read but never acked.
func (w *Worker) claimStale(ctx context.Context) ([]redis.XMessage, error) {
	entries, next, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumer,
		MinIdle:  claimMinIdle,
		Start:    w.claimCursor,
		Count:    batchSize,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("autoclaim: %w", err)
	}
	if next != "" {
		w.claimCursor = next
	}
	return entries, nil
}

func (w *Worker) reportDepth(ctx context.Context) {
	groups, err := w.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			w.logger.Warn("reading consumer group info failed", "error", err)
		}
		return
	}
	for _, g := range groups {
		if g.Name == ConsumerGroup {
			w.metrics.SetNotificationQueueDepth(g.Pending + g.Lag)
			return
		}
	}
}

func (w *Worker) deadLetter(ctx context.Context, entry redis.XMessage, reason string, cause error) {
	w.logger.Warn("dead-lettering notification", "message_id", entry.ID, "reason", reason, "error", cause)
	w.metrics.IncNotificationProcessed("dead_letter")

	err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: deadLetterLimit,
		Approx: true,
		Values: map[string]any{
			"original_id":      entry.ID,
			"reason":           reason,
			"detail":           cause.Error(),
			"payload":          entry.Values["payload"],
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("writing dead letter failed", "message_id", entry.ID, "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
