// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/folio/internal/model"
)

// RequireEnv returns the variable's value, skipping the test when unset.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// OpenMongo connects to MONGO_URI and returns a throwaway database that is
// dropped when the test ends.
func OpenMongo(t testing.TB) *mongo.Database {
	t.Helper()
	uri := RequireEnv(t, "MONGO_URI")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("ping mongo: %v", err)
	}

	db := client.Database("folio_test_" + strings.ToLower(ulid.Make().String()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// OpenRedis connects to REDIS_URL. The selected database is flushed
// before and after the test, so point it at a scratch index.
func OpenRedis(t testing.TB) *redis.Client {
	t.Helper()
	opt, err := redis.ParseURL(RequireEnv(t, "REDIS_URL"))
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

// NewTestPost creates a published post with sensible defaults.
func NewTestPost(t testing.TB, slug string) *model.Post {
	t.Helper()
	now := time.Now().UTC()
	return &model.Post{
		Slug:        slug,
		Title:       "Post " + slug,
		Excerpt:     "An excerpt",
		Content:     "# Intro\n\nSome words here.\n\n## Details\n\nMore words.",
		Category:    "engineering",
		Tags:        []string{"go"},
		Author:      model.Author{Name: "Test Author"},
		Published:   true,
		Status:      model.PostStatusPublished,
		PublishedAt: &now,
		ReadTime:    1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestAd creates an ad running from start to end.
func NewTestAd(t testing.TB, start, end time.Time) *model.Ad {
	t.Helper()
	now := time.Now().UTC()
	ad := &model.Ad{
		Title:     "Test Ad",
		Image:     "/uploads/ad.png",
		Link:      "https://example.com",
		Priority:  50,
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ad.ApplyStatus("", now)
	return ad
}

// NewTestLead creates a new lead.
func NewTestLead(t testing.TB, email string) *model.Lead {
	t.Helper()
	now := time.Now().UTC()
	return &model.Lead{
		Name:        "Test Lead",
		Email:       email,
		Message:     "Hello there",
		Page:        model.DefaultLeadPage,
		Path:        model.DefaultLeadPage,
		Country:     "Unknown",
		CountryCode: "XX",
		Status:      model.LeadStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UniqueSlug returns prefix plus a random lowercase suffix.
func UniqueSlug(prefix string) string {
	return prefix + "-" + strings.ToLower(ulid.Make().String())
}
