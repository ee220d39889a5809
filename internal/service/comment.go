package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/tracking"
	"github.com/folio/folio/internal/validation"
)

// CommentStore persists comments and the counters they drive.
type CommentStore interface {
	GetPostBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Post, error)
	CreateComment(ctx context.Context, c *model.Comment) error
	ListComments(ctx context.Context, f repository.CommentFilter) ([]model.Comment, int64, error)
	SetCommentApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*model.Comment, error)
	DeleteComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error)
	IncrementPostCounters(ctx context.Context, id primitive.ObjectID, comments, ratings, ratingTotal int64) error
}

// CreateCommentInput is a reader's comment. Website is a honeypot that
// real visitors never see.
type CreateCommentInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Message string `json:"message" validate:"required,max=2000"`
	Rating  *int   `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Website string `json:"website"`
}

// CommentService handles blog comments and ratings.
type CommentService struct {
	store       CommentStore
	autoApprove bool
	logger      *slog.Logger
	metrics     metrics.Recorder
	now         func() time.Time
}

// NewCommentService creates a CommentService.
func NewCommentService(store CommentStore, autoApprove bool, logger *slog.Logger, recorder metrics.Recorder) *CommentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CommentService{
		store:       store,
		autoApprove: autoApprove,
		logger:      logger.With("component", "service.comment"),
		metrics:     recorder,
		now:         time.Now,
	}
}

// Create adds a comment to a published post. A filled honeypot returns
// (nil, nil): the caller answers success and nothing is stored.
func (s *CommentService) Create(ctx context.Context, slug string, in CreateCommentInput, meta RequestMeta) (*model.Comment, error) {
	if strings.TrimSpace(in.Website) != "" {
		s.metrics.IncCommentSubmitted("spam")
		s.logger.Info("honeypot comment discarded", "slug", slug)
		return nil, nil
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	post, err := s.store.GetPostBySlug(ctx, slug, true)
	if err != nil {
		return nil, mapNotFound(err, ErrPostNotFound)
	}

	c := &model.Comment{
		PostID:    post.ID,
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Message:   in.Message,
		Rating:    in.Rating,
		Approved:  s.autoApprove,
		IP:        meta.IP,
		UserAgent: tracking.TruncateUserAgent(meta.UserAgent),
		CreatedAt: s.now().UTC(),
	}
	if c.Name == "" || strings.TrimSpace(c.Message) == "" {
		return nil, validation.NewError("message", "required", "message is required")
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	var ratings, total int64
	if c.Rating != nil {
		ratings, total = 1, int64(*c.Rating)
	}
	if err := s.store.IncrementPostCounters(ctx, post.ID, 1, ratings, total); err != nil {
		// Drop the comment so stored comments and post counters stay in step.
		if _, derr := s.store.DeleteComment(context.WithoutCancel(ctx), c.ID); derr != nil {
			s.logger.Error("removing uncounted comment failed", "comment_id", c.ID.Hex(), "post_id", post.ID.Hex(), "error", derr)
		}
		return nil, fmt.Errorf("update post counters: %w", err)
	}

	s.metrics.IncCommentSubmitted("accepted")
	return c, nil
}

// ListForPost returns approved comments of a published post, newest first.
func (s *CommentService) ListForPost(ctx context.Context, slug string, page, limit int) ([]model.Comment, int64, repository.Page, error) {
	post, err := s.store.GetPostBySlug(ctx, slug, true)
	if err != nil {
		return nil, 0, repository.Page{}, mapNotFound(err, ErrPostNotFound)
	}
	approved := true
	return s.list(ctx, repository.CommentFilter{PostID: &post.ID, Approved: &approved}, page, limit)
}

// ListAll returns comments for moderation.
func (s *CommentService) ListAll(ctx context.Context, postID string, approved *bool, page, limit int) ([]model.Comment, int64, repository.Page, error) {
	f := repository.CommentFilter{Approved: approved}
	if postID != "" {
		oid, err := parseID(postID, ErrPostNotFound)
		if err != nil {
			return nil, 0, repository.Page{}, err
		}
		f.PostID = &oid
	}
	return s.list(ctx, f, page, limit)
}

func (s *CommentService) list(ctx context.Context, f repository.CommentFilter, page, limit int) ([]model.Comment, int64, repository.Page, error) {
	f.Page = repository.Page{Page: page, Limit: limit}.Normalize(20, 100)
	comments, total, err := s.store.ListComments(ctx, f)
	if err != nil {
		return nil, 0, f.Page, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, f.Page, nil
}

// SetApproved approves or hides a comment.
func (s *CommentService) SetApproved(ctx context.Context, id string, approved bool) (*model.Comment, error) {
	oid, err := parseID(id, ErrCommentNotFound)
	if err != nil {
		return nil, err
	}
	c, err := s.store.SetCommentApproved(ctx, oid, approved)
	if err != nil {
		return nil, mapNotFound(err, ErrCommentNotFound)
	}
	return c, nil
}

// Delete removes a comment and takes it back out of the post counters.
func (s *CommentService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, ErrCommentNotFound)
	if err != nil {
		return err
	}
	c, err := s.store.DeleteComment(ctx, oid)
	if err != nil {
		return mapNotFound(err, ErrCommentNotFound)
	}

	var ratings, total int64
	if c.Rating != nil {
		ratings, total = -1, -int64(*c.Rating)
	}
	if err := s.store.IncrementPostCounters(ctx, c.PostID, -1, ratings, total); err != nil && !isNotFound(err) {
		return fmt.Errorf("update post counters: %w", err)
	}
	return nil
}
