package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/folio/folio/internal/content"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/validation"
)

// PostStore persists blog posts.
type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	ViewPostBySlug(ctx context.Context, slug string) (*model.Post, error)
	ListPosts(ctx context.Context, f repository.PostFilter) ([]model.Post, int64, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	PostCategories(ctx context.Context) ([]string, error)
}

const excerptLength = 200

// reservedSlugs are path segments routed under /api/blog ahead of {key}.
var reservedSlugs = map[string]bool{
	"admin":      true,
	"categories": true,
	"comments":   true,
	"id":         true,
}

func checkSlug(slug string) error {
	if reservedSlugs[slug] {
		return validation.NewError("slug", "reserved", fmt.Sprintf("slug %q is reserved", slug))
	}
	return nil
}

// PostInput is the body for creating a post. Every field is optional on
// update; see UpdatePostInput.
type PostInput struct {
	Title       string       `json:"title" validate:"required,max=200"`
	Slug        string       `json:"slug" validate:"max=200"`
	Excerpt     string       `json:"excerpt" validate:"max=500"`
	Content     string       `json:"content" validate:"required"`
	CoverImage  string       `json:"coverImage" validate:"max=2048"`
	Category    string       `json:"category" validate:"max=100"`
	Tags        []string     `json:"tags" validate:"max=20,dive,max=50"`
	Author      model.Author `json:"author"`
	Featured    bool         `json:"featured"`
	Status      string       `json:"status" validate:"omitempty,oneof=draft published scheduled"`
	Published   *bool        `json:"published"`
	PublishedAt *time.Time   `json:"publishedAt"`
	ScheduledAt *time.Time   `json:"scheduledAt"`
	SEO         model.SEO    `json:"seo"`
}

// UpdatePostInput carries the fields to change.
type UpdatePostInput struct {
	Title       *string       `json:"title" validate:"omitempty,max=200"`
	Slug        *string       `json:"slug" validate:"omitempty,max=200"`
	Excerpt     *string       `json:"excerpt" validate:"omitempty,max=500"`
	Content     *string       `json:"content"`
	CoverImage  *string       `json:"coverImage" validate:"omitempty,max=2048"`
	Category    *string       `json:"category" validate:"omitempty,max=100"`
	Tags        []string      `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Author      *model.Author `json:"author"`
	Featured    *bool         `json:"featured"`
	Status      *string       `json:"status" validate:"omitempty,oneof=draft published scheduled"`
	Published   *bool         `json:"published"`
	PublishedAt *time.Time    `json:"publishedAt"`
	ScheduledAt *time.Time    `json:"scheduledAt"`
	SEO         *model.SEO    `json:"seo"`
}

// ListPostsInput filters a post listing.
type ListPostsInput struct {
	Status   string
	Category string
	Tag      string
	Search   string
	Featured *bool
	Page     int
	Limit    int
}

// BlogService manages blog posts.
type BlogService struct {
	store   PostStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewBlogService creates a BlogService.
func NewBlogService(store PostStore, logger *slog.Logger, recorder metrics.Recorder) *BlogService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &BlogService{
		store:   store,
		logger:  logger.With("component", "service.blog"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Create stores a new post with derived slug, read time and TOC.
func (s *BlogService) Create(ctx context.Context, in PostInput) (*model.Post, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	slug := content.Slugify(in.Slug)
	if slug == "" {
		slug = content.Slugify(in.Title)
	}
	if slug == "" {
		return nil, validation.NewError("slug", "required", "slug could not be derived from title")
	}
	if err := checkSlug(slug); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &model.Post{
		Slug:        slug,
		Title:       strings.TrimSpace(in.Title),
		Excerpt:     in.Excerpt,
		CoverImage:  in.CoverImage,
		Category:    strings.TrimSpace(in.Category),
		Tags:        content.NormalizeTags(in.Tags),
		Author:      in.Author,
		Featured:    in.Featured,
		ScheduledAt: utcPtr(in.ScheduledAt),
		SEO:         in.SEO,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	setContent(post, in.Content)

	status, err := resolvePostStatus(in.Status, in.Published, model.PostStatusDraft)
	if err != nil {
		return nil, err
	}
	if status == model.PostStatusScheduled && post.ScheduledAt == nil {
		return nil, validation.NewError("scheduledAt", "required_if", "scheduledAt is required for scheduled posts")
	}
	post.SetStatus(status, utcPtr(in.PublishedAt), now)

	if err := s.store.CreatePost(ctx, post); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.metrics.IncContentChanged("post", "create")
	s.logger.Info("post created", "post_id", post.ID.Hex(), "slug", post.Slug, "status", post.Status)
	return post.Decorate(), nil
}

// Update merges in. Content changes recompute read time and TOC; any
// status input re-syncs published and publishedAt.
func (s *BlogService) Update(ctx context.Context, id string, in UpdatePostInput) (*model.Post, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Slug != nil {
		slug := content.Slugify(*in.Slug)
		if slug == "" {
			return nil, validation.NewError("slug", "required", "slug must contain letters or digits")
		}
		if err := checkSlug(slug); err != nil {
			return nil, err
		}
		post.Slug = slug
	}
	if in.Excerpt != nil {
		post.Excerpt = *in.Excerpt
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, validation.NewError("content", "required", "content is required")
		}
		setContent(post, *in.Content)
	}
	if in.CoverImage != nil {
		post.CoverImage = *in.CoverImage
	}
	if in.Category != nil {
		post.Category = strings.TrimSpace(*in.Category)
	}
	if in.Tags != nil {
		post.Tags = content.NormalizeTags(in.Tags)
	}
	if in.Author != nil {
		post.Author = *in.Author
	}
	if in.Featured != nil {
		post.Featured = *in.Featured
	}
	if in.SEO != nil {
		post.SEO = *in.SEO
	}
	if in.ScheduledAt != nil {
		post.ScheduledAt = utcPtr(in.ScheduledAt)
	}

	now := s.now().UTC()
	if in.Status != nil || in.Published != nil || in.PublishedAt != nil || in.ScheduledAt != nil {
		var status string
		if in.Status != nil {
			status = *in.Status
		}
		next, err := resolvePostStatus(status, in.Published, post.Status)
		if err != nil {
			return nil, err
		}
		if next == model.PostStatusScheduled && post.ScheduledAt == nil {
			return nil, validation.NewError("scheduledAt", "required_if", "scheduledAt is required for scheduled posts")
		}
		post.SetStatus(next, utcPtr(in.PublishedAt), now)
	}
	post.UpdatedAt = now

	if err := s.store.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, mapNotFound(err, ErrPostNotFound)
	}

	s.metrics.IncContentChanged("post", "update")
	return post.Decorate(), nil
}

// ViewBySlug returns a published post and counts the view.
func (s *BlogService) ViewBySlug(ctx context.Context, slug string) (*model.Post, error) {
	post, err := s.store.ViewPostBySlug(ctx, slug)
	if err != nil {
		return nil, mapNotFound(err, ErrPostNotFound)
	}
	return post.Decorate(), nil
}

// GetByID returns any post, drafts included.
func (s *BlogService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	oid, err := parseID(id, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, oid)
	if err != nil {
		return nil, mapNotFound(err, ErrPostNotFound)
	}
	return post.Decorate(), nil
}

// ListPublished returns published posts without their content.
func (s *BlogService) ListPublished(ctx context.Context, in ListPostsInput) ([]model.Post, int64, repository.Page, error) {
	in.Status = ""
	return s.list(ctx, in, true)
}

// ListAll returns posts in every status for the admin.
func (s *BlogService) ListAll(ctx context.Context, in ListPostsInput) ([]model.Post, int64, repository.Page, error) {
	st := model.PostStatus(in.Status)
	if st != "" && !st.IsValid() {
		return nil, 0, repository.Page{}, ErrInvalidStatus
	}
	return s.list(ctx, in, false)
}

func (s *BlogService) list(ctx context.Context, in ListPostsInput, publishedOnly bool) ([]model.Post, int64, repository.Page, error) {
	page := repository.Page{Page: in.Page, Limit: in.Limit}.Normalize(10, 50)
	posts, total, err := s.store.ListPosts(ctx, repository.PostFilter{
		PublishedOnly: publishedOnly,
		Status:        model.PostStatus(in.Status),
		Category:      strings.TrimSpace(in.Category),
		Tag:           strings.ToLower(strings.TrimSpace(in.Tag)),
		Search:        strings.TrimSpace(in.Search),
		Featured:      in.Featured,
		Page:          page,
	})
	if err != nil {
		return nil, 0, page, fmt.Errorf("list posts: %w", err)
	}
	for i := range posts {
		posts[i].Decorate()
	}
	return posts, total, page, nil
}

// Categories lists the categories of published posts.
func (s *BlogService) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.store.PostCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("post categories: %w", err)
	}
	return cats, nil
}

// Delete removes a post and its comments.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, ErrPostNotFound)
	if err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, oid); err != nil {
		return mapNotFound(err, ErrPostNotFound)
	}
	s.metrics.IncContentChanged("post", "delete")
	return nil
}

// resolvePostStatus picks the status from explicit input, then the
// published flag, then current.
func resolvePostStatus(status string, published *bool, current model.PostStatus) (model.PostStatus, error) {
	if status != "" {
		st := model.PostStatus(status)
		if !st.IsValid() {
			return "", ErrInvalidStatus
		}
		return st, nil
	}
	if published != nil {
		if *published {
			return model.PostStatusPublished, nil
		}
		return model.PostStatusDraft, nil
	}
	if current == "" {
		return model.PostStatusDraft, nil
	}
	return current, nil
}

// setContent stores body and recomputes everything derived from it.
func setContent(post *model.Post, body string) {
	post.Content = body
	post.ReadTime = content.ReadTime(body)
	post.TableOfContents = content.TableOfContents(body)
	if post.Excerpt == "" {
		post.Excerpt = excerpt(body)
	}
}

func excerpt(body string) string {
	words := strings.Fields(content.PlainText(body))
	var b strings.Builder
	for _, w := range words {
		if b.Len()+len(w)+1 > excerptLength {
			b.WriteString("…")
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	return b.String()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
