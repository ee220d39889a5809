package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/folio/internal/model"
)

// Traffic bucket formats for $dateToString.
const (
	BucketDay   = "%Y-%m-%d"
	BucketMonth = "%Y-%m"
)

// unknownCountry is excluded from country breakdowns.
const unknownCountry = "Unknown"

// AnalyticsRepository runs read-only aggregations over visits, events and leads.
type AnalyticsRepository struct {
	repo *Repository
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(repo *Repository) *AnalyticsRepository {
	return &AnalyticsRepository{repo: repo}
}

// CountVisits counts visits in w.
func (a *AnalyticsRepository) CountVisits(ctx context.Context, w Window) (int64, error) {
	n, err := a.repo.coll(CollVisits).CountDocuments(ctx, w.filter("timestamp"))
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

// CountDistinctSessions counts distinct session ids among visits in w.
func (a *AnalyticsRepository) CountDistinctSessions(ctx context.Context, w Window) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: w.filter("timestamp")}},
		{{Key: "$group", Value: bson.M{"_id": "$sessionId"}}},
		{{Key: "$count", Value: "n"}},
	}

	var rows []struct {
		N int64 `bson:"n"`
	}
	if err := a.aggregate(ctx, CollVisits, pipeline, &rows); err != nil {
		return 0, fmt.Errorf("distinct sessions: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].N, nil
}

// CountLeads counts leads, optionally only those with status.
func (a *AnalyticsRepository) CountLeads(ctx context.Context, status model.LeadStatus) (int64, error) {
	q := bson.M{}
	if status != "" {
		q["status"] = status
	}
	n, err := a.repo.coll(CollLeads).CountDocuments(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

// CountEvents counts events in w.
func (a *AnalyticsRepository) CountEvents(ctx context.Context, w Window) (int64, error) {
	n, err := a.repo.coll(CollEvents).CountDocuments(ctx, w.filter("timestamp"))
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Traffic buckets visits by bucket format (BucketDay or BucketMonth), oldest first.
func (a *AnalyticsRepository) Traffic(ctx context.Context, w Window, bucket string) ([]model.TrafficPoint, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: w.filter("timestamp")}},
		{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"$dateToString": bson.M{"format": bucket, "date": "$timestamp", "timezone": "UTC"}},
			"visits":   bson.M{"$sum": 1},
			"sessions": bson.M{"$addToSet": "$sessionId"},
		}}},
		{{Key: "$project", Value: bson.M{
			"visits":         1,
			"uniqueVisitors": bson.M{"$size": "$sessions"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	points := []model.TrafficPoint{}
	if err := a.aggregate(ctx, CollVisits, pipeline, &points); err != nil {
		return nil, fmt.Errorf("traffic: %w", err)
	}
	return points, nil
}

// TopCountries groups visits by country, excluding the unknown sentinel.
func (a *AnalyticsRepository) TopCountries(ctx context.Context, w Window, limit int) ([]model.CountryBreakdown, error) {
	match := w.filter("timestamp")
	match["country"] = bson.M{"$nin": bson.A{unknownCountry, "", nil}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$country",
			"countryCode": bson.M{"$first": "$countryCode"},
			"visits":      bson.M{"$sum": 1},
			"sessions":    bson.M{"$addToSet": "$sessionId"},
		}}},
		{{Key: "$project", Value: bson.M{
			"countryCode":    1,
			"visits":         1,
			"uniqueVisitors": bson.M{"$size": "$sessions"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "visits", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	rows := []model.CountryBreakdown{}
	if err := a.aggregate(ctx, CollVisits, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("top countries: %w", err)
	}
	return rows, nil
}

// TopPages groups visits by page.
func (a *AnalyticsRepository) TopPages(ctx context.Context, w Window, limit int) ([]model.PageBreakdown, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: w.filter("timestamp")}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$page",
			"path":     bson.M{"$first": "$path"},
			"visits":   bson.M{"$sum": 1},
			"sessions": bson.M{"$addToSet": "$sessionId"},
		}}},
		{{Key: "$project", Value: bson.M{
			"path":           1,
			"visits":         1,
			"uniqueVisitors": bson.M{"$size": "$sessions"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "visits", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	rows := []model.PageBreakdown{}
	if err := a.aggregate(ctx, CollVisits, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("top pages: %w", err)
	}
	return rows, nil
}

// TopEvents groups events by name.
func (a *AnalyticsRepository) TopEvents(ctx context.Context, w Window, limit int) ([]model.EventBreakdown, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: w.filter("timestamp")}},
		{{Key: "$group", Value: bson.M{"_id": "$eventName", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	rows := []model.EventBreakdown{}
	if err := a.aggregate(ctx, CollEvents, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("top events: %w", err)
	}
	return rows, nil
}

// RecentVisits returns the newest visits with a reduced projection.
func (a *AnalyticsRepository) RecentVisits(ctx context.Context, limit int) ([]model.RecentVisit, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{
			"page": 1, "path": 1, "country": 1, "countryCode": 1, "city": 1,
			"device": 1, "browser": 1, "referrer": 1, "timestamp": 1,
		})

	cur, err := a.repo.coll(CollVisits).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("recent visits: %w", err)
	}
	rows := []model.RecentVisit{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode recent visits: %w", err)
	}
	return rows, nil
}

// EachVisit streams visits in w, newest first.
func (a *AnalyticsRepository) EachVisit(ctx context.Context, w Window, fn func(*model.Visit) error) error {
	cur, err := a.repo.coll(CollVisits).Find(ctx, w.filter("timestamp"), options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return fmt.Errorf("find visits: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var v model.Visit
		if err := cur.Decode(&v); err != nil {
			return fmt.Errorf("decode visit: %w", err)
		}
		if err := fn(&v); err != nil {
			return err
		}
	}
	return cur.Err()
}

// EachLead streams leads created in w.
func (a *AnalyticsRepository) EachLead(ctx context.Context, w Window, fn func(*model.Lead) error) error {
	return a.repo.EachLead(ctx, LeadFilter{Window: w}, fn)
}

func (a *AnalyticsRepository) aggregate(ctx context.Context, coll string, pipeline mongo.Pipeline, out any) error {
	cur, err := a.repo.coll(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}
