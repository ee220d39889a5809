package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/folio/internal/model"
)

// CommentFilter defines filters for listing comments.
type CommentFilter struct {
	PostID   *primitive.ObjectID
	Approved *bool
	Page     Page
}

// CreateComment inserts a comment.
func (r *Repository) CreateComment(ctx context.Context, c *model.Comment) error {
	id, err := r.insert(ctx, CollComments, c)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	c.ID = id
	return nil
}

// ListComments returns comments, newest first.
func (r *Repository) ListComments(ctx context.Context, f CommentFilter) ([]model.Comment, int64, error) {
	q := bson.M{}
	if f.PostID != nil {
		q["postId"] = *f.PostID
	}
	if f.Approved != nil {
		q["approved"] = *f.Approved
	}

	total, err := r.coll(CollComments).CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(f.Page.skip()).
		SetLimit(int64(f.Page.Limit))

	cur, err := r.coll(CollComments).Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find comments: %w", err)
	}
	comments := []model.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, 0, fmt.Errorf("decode comments: %w", err)
	}
	return comments, total, nil
}

// SetCommentApproved updates the moderation flag and returns the comment.
func (r *Repository) SetCommentApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*model.Comment, error) {
	var c model.Comment
	err := r.coll(CollComments).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"approved": approved}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// DeleteComment removes a comment and returns what was deleted.
func (r *Repository) DeleteComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	var c model.Comment
	if err := r.coll(CollComments).FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}
