package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
)

const (
	// StreamKey is the Redis stream carrying outbound email.
	StreamKey = "stream:notifications"

	// DeadLetterStreamKey holds messages that could not be delivered.
	DeadLetterStreamKey = "stream:notifications:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000

	// PublishTimeout bounds a single XADD from PublishAsync.
	PublishTimeout = 500 * time.Millisecond
)

// Publisher enqueues messages on the notification stream.
type Publisher struct {
	redis      *redis.Client
	logger     *slog.Logger
	metrics    metrics.Recorder
	ownerEmail string
	now        func() time.Time
}

// NewPublisher creates a publisher. ownerEmail receives new-lead notices.
func NewPublisher(client *redis.Client, ownerEmail string, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:      client,
		logger:     logger.With("component", "notify.publisher"),
		metrics:    recorder,
		ownerEmail: ownerEmail,
		now:        time.Now,
	}
}

// Publish adds a message to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, msg Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]any{"payload": string(data)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}
	return id, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned.
func (p *Publisher) PublishAsync(msg Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, msg)
		if err != nil {
			p.logger.Warn("failed to publish notification",
				"kind", msg.Kind,
				"lead_id", msg.LeadID,
				"error", err,
			)
			p.metrics.IncNotificationPublished("dropped")
			return
		}

		p.logger.Debug("notification published",
			"kind", msg.Kind,
			"stream_id", streamID,
		)
		p.metrics.IncNotificationPublished("success")
	}()
}

// LeadCreated queues the owner notice and the submitter acknowledgement.
func (p *Publisher) LeadCreated(lead *model.Lead) {
	for _, msg := range LeadMessages(lead, p.ownerEmail, p.now()) {
		p.PublishAsync(msg)
	}
}
