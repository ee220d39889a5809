package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/folio/internal/model"
)

// Ad counter fields.
const (
	AdCounterClicks      = "clicks"
	AdCounterImpressions = "impressions"
)

// AdFilter defines filters for listing ads.
type AdFilter struct {
	Status model.AdStatus
	Page   Page
}

// CreateAd inserts an ad.
func (r *Repository) CreateAd(ctx context.Context, ad *model.Ad) error {
	id, err := r.insert(ctx, CollAds, ad)
	if err != nil {
		return fmt.Errorf("failed to create ad: %w", err)
	}
	ad.ID = id
	return nil
}

// GetAd fetches an ad by id.
func (r *Repository) GetAd(ctx context.Context, id primitive.ObjectID) (*model.Ad, error) {
	var ad model.Ad
	if err := r.findByID(ctx, CollAds, id, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// ListAds returns ads ordered by priority, newest first within a priority.
func (r *Repository) ListAds(ctx context.Context, f AdFilter) ([]model.Ad, int64, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}

	total, err := r.coll(CollAds).CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count ads: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(f.Page.skip()).
		SetLimit(int64(f.Page.Limit))

	cur, err := r.coll(CollAds).Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find ads: %w", err)
	}
	ads := []model.Ad{}
	if err := cur.All(ctx, &ads); err != nil {
		return nil, 0, fmt.Errorf("decode ads: %w", err)
	}
	return ads, total, nil
}

// ListActiveAds returns ads servable at now, highest priority first. The
// query mirrors model.Ad.IsActive so stale statuses do not hide an ad.
func (r *Repository) ListActiveAds(ctx context.Context, now time.Time, limit int) ([]model.Ad, error) {
	q := bson.M{
		"startDate": bson.M{"$lte": now},
		"endDate":   bson.M{"$gte": now},
		"$or": bson.A{
			bson.M{"status": bson.M{"$ne": model.AdStatusDraft}},
			bson.M{"autoStatus": true},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.coll(CollAds).Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("find active ads: %w", err)
	}
	ads := []model.Ad{}
	if err := cur.All(ctx, &ads); err != nil {
		return nil, fmt.Errorf("decode ads: %w", err)
	}
	return ads, nil
}

// UpdateAd writes the editable fields of an ad. Clicks and impressions
// are only touched by IncrementAdCounter.
func (r *Repository) UpdateAd(ctx context.Context, ad *model.Ad) error {
	set := bson.M{
		"title":       ad.Title,
		"description": ad.Description,
		"image":       ad.Image,
		"link":        ad.Link,
		"priority":    ad.Priority,
		"startDate":   ad.StartDate,
		"endDate":     ad.EndDate,
		"status":      ad.Status,
		"autoStatus":  ad.AutoStatus,
		"updatedAt":   ad.UpdatedAt,
	}

	res, err := r.coll(CollAds).UpdateOne(ctx, bson.M{"_id": ad.ID}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAd removes an ad.
func (r *Repository) DeleteAd(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, CollAds, id)
}

// IncrementAdCounter atomically bumps clicks or impressions and returns the
// updated ad.
func (r *Repository) IncrementAdCounter(ctx context.Context, id primitive.ObjectID, field string) (*model.Ad, error) {
	if field != AdCounterClicks && field != AdCounterImpressions {
		return nil, fmt.Errorf("unknown ad counter %q", field)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ad model.Ad
	err := r.coll(CollAds).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{field: 1}},
		opts,
	).Decode(&ad)
	if err != nil {
		return nil, translate(err)
	}
	return &ad, nil
}

// ReconcileAdStatuses moves auto-status ads to the status their dates imply.
// Pinned drafts are left alone.
func (r *Repository) ReconcileAdStatuses(ctx context.Context, now time.Time) (int64, error) {
	coll := r.coll(CollAds)

	expired, err := coll.UpdateMany(ctx,
		bson.M{"autoStatus": true, "status": bson.M{"$ne": model.AdStatusExpired}, "endDate": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": model.AdStatusExpired, "updatedAt": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("expire ads: %w", err)
	}

	activated, err := coll.UpdateMany(ctx,
		bson.M{"autoStatus": true, "status": model.AdStatusDraft, "startDate": bson.M{"$lte": now}, "endDate": bson.M{"$gte": now}},
		bson.M{"$set": bson.M{"status": model.AdStatusActive, "updatedAt": now}},
	)
	if err != nil {
		return expired.ModifiedCount, fmt.Errorf("activate ads: %w", err)
	}

	return expired.ModifiedCount + activated.ModifiedCount, nil
}
