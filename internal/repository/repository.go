// Package repository provides the MongoDB access layer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	CollVisits        = "visits"
	CollDailySessions = "daily_sessions"
	CollEvents        = "events"
	CollLeads         = "leads"
	CollAds           = "ads"
	CollPosts         = "blogs"
	CollComments      = "comments"
	CollProjects      = "projects"
	CollServices      = "services"
	CollAdminUsers    = "admin_users"
)

// Common repository errors.
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Repository provides database access methods.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB and selects database.
func New(ctx context.Context, uri, database string) (*Repository, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(5 * time.Minute)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{client: client, db: client.Database(database)}, nil
}

// NewFromDatabase wraps an already connected database.
func NewFromDatabase(db *mongo.Database) *Repository {
	return &Repository{client: db.Client(), db: db}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// Database returns the underlying database.
// Use sparingly - prefer adding methods to Repository.
func (r *Repository) Database() *mongo.Database {
	return r.db
}

func (r *Repository) coll(name string) *mongo.Collection {
	return r.db.Collection(name)
}

// ParseID converts a hex id. Malformed ids resolve to ErrNotFound.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}

func (r *Repository) insert(ctx context.Context, coll string, doc any) (primitive.ObjectID, error) {
	res, err := r.coll(coll).InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid, nil
}

func (r *Repository) findByID(ctx context.Context, coll string, id primitive.ObjectID, out any) error {
	return translate(r.coll(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out))
}

func (r *Repository) replaceByID(ctx context.Context, coll string, id primitive.ObjectID, doc any) error {
	res, err := r.coll(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) deleteByID(ctx context.Context, coll string, id primitive.ObjectID) error {
	res, err := r.coll(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Page describes offset pagination. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page into sane bounds.
func (p Page) Normalize(defaultLimit, maxLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func (p Page) skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// Window bounds a query on a timestamp field: Start inclusive, End exclusive.
// A nil bound is open.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// filter returns the range condition for field, or nil when unbounded.
func (w Window) filter(field string) bson.M {
	cond := bson.M{}
	if w.Start != nil {
		cond["$gte"] = *w.Start
	}
	if w.End != nil {
		cond["$lt"] = *w.End
	}
	if len(cond) == 0 {
		return bson.M{}
	}
	return bson.M{field: cond}
}
