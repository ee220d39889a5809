package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/folio/internal/model"
)

// MarkDailySession records that sessionID was seen on the UTC day of at.
// It returns true only for the first caller of the day. The upsert is
// atomic, so concurrent first visits cannot both win.
func (r *Repository) MarkDailySession(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	day := at.UTC().Format("2006-01-02")
	filter := bson.M{"_id": dailySessionKey(sessionID, at)}
	update := bson.M{"$setOnInsert": bson.M{
		"sessionId": sessionID,
		"day":       day,
		"createdAt": at.UTC(),
	}}

	res, err := r.coll(CollDailySessions).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if errors.Is(translate(err), ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("mark daily session: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

// ReleaseDailySession removes the marker set by MarkDailySession so the
// next visit of that day counts as unique again.
func (r *Repository) ReleaseDailySession(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.coll(CollDailySessions).DeleteOne(ctx, bson.M{"_id": dailySessionKey(sessionID, at)})
	if err != nil {
		return fmt.Errorf("release daily session: %w", err)
	}
	return nil
}

func dailySessionKey(sessionID string, at time.Time) string {
	return sessionID + ":" + at.UTC().Format("2006-01-02")
}

// CreateVisit inserts a visit and sets its ID.
func (r *Repository) CreateVisit(ctx context.Context, v *model.Visit) error {
	id, err := r.insert(ctx, CollVisits, v)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	v.ID = id
	return nil
}

// CreateEvent inserts an event and sets its ID.
func (r *Repository) CreateEvent(ctx context.Context, e *model.Event) error {
	id, err := r.insert(ctx, CollEvents, e)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	e.ID = id
	return nil
}
