package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/folio/internal/model"
)

// PostFilter defines filters for listing posts.
type PostFilter struct {
	PublishedOnly bool
	Status        model.PostStatus
	Category      string
	Tag           string
	Search        string
	Featured      *bool
	Page          Page
}

func (f PostFilter) query() bson.M {
	q := bson.M{}
	if f.PublishedOnly {
		q["published"] = true
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Tag != "" {
		q["tags"] = f.Tag
	}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"excerpt": pattern},
			bson.M{"tags": pattern},
		}
	}
	return q
}

// CreatePost inserts a post. A taken slug returns ErrDuplicateKey.
func (r *Repository) CreatePost(ctx context.Context, post *model.Post) error {
	id, err := r.insert(ctx, CollPosts, post)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	post.ID = id
	return nil
}

// GetPost fetches a post by id.
func (r *Repository) GetPost(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	var post model.Post
	if err := r.findByID(ctx, CollPosts, id, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostBySlug fetches a post by slug, optionally only when published.
func (r *Repository) GetPostBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Post, error) {
	q := bson.M{"slug": slug}
	if publishedOnly {
		q["published"] = true
	}
	var post model.Post
	if err := r.coll(CollPosts).FindOne(ctx, q).Decode(&post); err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// ViewPostBySlug atomically increments the view counter of a published post
// and returns it.
func (r *Repository) ViewPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	var post model.Post
	err := r.coll(CollPosts).FindOneAndUpdate(ctx,
		bson.M{"slug": slug, "published": true},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// ListPosts returns a page of posts without their bodies.
func (r *Repository) ListPosts(ctx context.Context, f PostFilter) ([]model.Post, int64, error) {
	q := f.query()
	total, err := r.coll(CollPosts).CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	sortField := "createdAt"
	if f.PublishedOnly {
		sortField = "publishedAt"
	}
	opts := options.Find().
		SetProjection(bson.M{"content": 0}).
		SetSort(bson.D{{Key: sortField, Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(f.Page.skip()).
		SetLimit(int64(f.Page.Limit))

	cur, err := r.coll(CollPosts).Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find posts: %w", err)
	}
	posts := []model.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("decode posts: %w", err)
	}
	return posts, total, nil
}

// UpdatePost replaces the editable fields of a post. Counters are left to
// the atomic increment methods so concurrent views are not lost.
func (r *Repository) UpdatePost(ctx context.Context, post *model.Post) error {
	set := bson.M{
		"slug":            post.Slug,
		"title":           post.Title,
		"excerpt":         post.Excerpt,
		"content":         post.Content,
		"coverImage":      post.CoverImage,
		"category":        post.Category,
		"tags":            post.Tags,
		"author":          post.Author,
		"featured":        post.Featured,
		"published":       post.Published,
		"status":          post.Status,
		"publishedAt":     post.PublishedAt,
		"scheduledAt":     post.ScheduledAt,
		"seo":             post.SEO,
		"readTime":        post.ReadTime,
		"tableOfContents": post.TableOfContents,
		"updatedAt":       post.UpdatedAt,
	}

	res, err := r.coll(CollPosts).UpdateOne(ctx, bson.M{"_id": post.ID}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes a post and its comments.
func (r *Repository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	if err := r.deleteByID(ctx, CollPosts, id); err != nil {
		return err
	}
	if _, err := r.coll(CollComments).DeleteMany(ctx, bson.M{"postId": id}); err != nil {
		return fmt.Errorf("delete post comments: %w", err)
	}
	return nil
}

// IncrementPostCounters atomically adjusts the comment and rating counters.
func (r *Repository) IncrementPostCounters(ctx context.Context, id primitive.ObjectID, comments, ratings, ratingTotal int64) error {
	inc := bson.M{"commentsCount": comments}
	if ratings != 0 {
		inc["ratingsCount"] = ratings
		inc["ratingsTotal"] = ratingTotal
	}

	res, err := r.coll(CollPosts).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": inc})
	if err != nil {
		return fmt.Errorf("increment post counters: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PublishDuePosts flips scheduled posts whose publish time has passed.
func (r *Repository) PublishDuePosts(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll(CollPosts).UpdateMany(ctx,
		bson.M{"status": model.PostStatusScheduled, "publishedAt": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{
			"status":    model.PostStatusPublished,
			"published": true,
			"updatedAt": now,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("publish due posts: %w", err)
	}
	return res.ModifiedCount, nil
}

// PostCategories returns distinct categories of published posts.
func (r *Repository) PostCategories(ctx context.Context) ([]string, error) {
	values, err := r.coll(CollPosts).Distinct(ctx, "category", bson.M{"published": true})
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
