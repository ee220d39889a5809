package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/validation"
)

// AdStore persists ads.
type AdStore interface {
	CreateAd(ctx context.Context, ad *model.Ad) error
	GetAd(ctx context.Context, id primitive.ObjectID) (*model.Ad, error)
	ListAds(ctx context.Context, f repository.AdFilter) ([]model.Ad, int64, error)
	ListActiveAds(ctx context.Context, now time.Time, limit int) ([]model.Ad, error)
	UpdateAd(ctx context.Context, ad *model.Ad) error
	DeleteAd(ctx context.Context, id primitive.ObjectID) error
	IncrementAdCounter(ctx context.Context, id primitive.ObjectID, field string) (*model.Ad, error)
}

// CreateAdInput is the body for a new ad.
type CreateAdInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=1000"`
	Image       string    `json:"image" validate:"max=2048"`
	Link        string    `json:"link" validate:"omitempty,url,max=2048"`
	Priority    int       `json:"priority" validate:"gte=0,lte=100"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	Status      string    `json:"status" validate:"omitempty,oneof=draft active expired"`
}

// UpdateAdInput carries the fields to change.
type UpdateAdInput struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Image       *string    `json:"image" validate:"omitempty,max=2048"`
	Link        *string    `json:"link" validate:"omitempty,url,max=2048"`
	Priority    *int       `json:"priority" validate:"omitempty,gte=0,lte=100"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Status      *string    `json:"status" validate:"omitempty,oneof=draft active expired"`
}

// AdService manages promotional ads.
type AdService struct {
	store   AdStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewAdService creates an AdService.
func NewAdService(store AdStore, logger *slog.Logger, recorder metrics.Recorder) *AdService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AdService{
		store:   store,
		logger:  logger.With("component", "service.ad"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Create validates and stores an ad with a derived status.
func (s *AdService) Create(ctx context.Context, in CreateAdInput) (*model.Ad, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, ErrInvalidDateRange
	}

	now := s.now().UTC()
	ad := &model.Ad{
		Title:       in.Title,
		Description: in.Description,
		Image:       in.Image,
		Link:        in.Link,
		Priority:    in.Priority,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ad.ApplyStatus(model.AdStatus(in.Status), now)

	if err := s.store.CreateAd(ctx, ad); err != nil {
		return nil, fmt.Errorf("create ad: %w", err)
	}
	s.metrics.IncContentChanged("ad", "create")
	return ad.Decorate(now), nil
}

// Update merges in and re-derives the status.
func (s *AdService) Update(ctx context.Context, id string, in UpdateAdInput) (*model.Ad, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	ad, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		ad.Title = *in.Title
	}
	if in.Description != nil {
		ad.Description = *in.Description
	}
	if in.Image != nil {
		ad.Image = *in.Image
	}
	if in.Link != nil {
		ad.Link = *in.Link
	}
	if in.Priority != nil {
		ad.Priority = *in.Priority
	}
	if in.StartDate != nil {
		ad.StartDate = in.StartDate.UTC()
	}
	if in.EndDate != nil {
		ad.EndDate = in.EndDate.UTC()
	}
	if (in.StartDate != nil || in.EndDate != nil) && ad.EndDate.Before(ad.StartDate) {
		return nil, ErrInvalidDateRange
	}

	now := s.now().UTC()
	var requested model.AdStatus
	if in.Status != nil {
		requested = model.AdStatus(*in.Status)
	}
	ad.ApplyStatus(requested, now)
	ad.UpdatedAt = now

	if err := s.store.UpdateAd(ctx, ad); err != nil {
		return nil, mapNotFound(err, ErrAdNotFound)
	}
	s.metrics.IncContentChanged("ad", "update")
	return ad.Decorate(now), nil
}

// Get fetches an ad by id.
func (s *AdService) Get(ctx context.Context, id string) (*model.Ad, error) {
	ad, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ad.Decorate(s.now()), nil
}

func (s *AdService) get(ctx context.Context, id string) (*model.Ad, error) {
	oid, err := parseID(id, ErrAdNotFound)
	if err != nil {
		return nil, err
	}
	ad, err := s.store.GetAd(ctx, oid)
	if err != nil {
		return nil, mapNotFound(err, ErrAdNotFound)
	}
	return ad, nil
}

// List returns ads for the admin, optionally filtered by stored status.
func (s *AdService) List(ctx context.Context, status string, page, limit int) ([]model.Ad, int64, repository.Page, error) {
	st := model.AdStatus(status)
	if st != "" && !st.IsValid() {
		return nil, 0, repository.Page{}, ErrInvalidStatus
	}

	p := repository.Page{Page: page, Limit: limit}.Normalize(20, 100)
	ads, total, err := s.store.ListAds(ctx, repository.AdFilter{Status: st, Page: p})
	if err != nil {
		return nil, 0, p, fmt.Errorf("list ads: %w", err)
	}
	now := s.now()
	for i := range ads {
		ads[i].Decorate(now)
	}
	return ads, total, p, nil
}

// Active returns the ads to serve now, highest priority first.
func (s *AdService) Active(ctx context.Context, limit int) ([]model.Ad, error) {
	now := s.now().UTC()
	ads, err := s.store.ListActiveAds(ctx, now, clampLimit(limit, defaultTopLimit))
	if err != nil {
		return nil, fmt.Errorf("list active ads: %w", err)
	}
	out := ads[:0]
	for i := range ads {
		if ads[i].IsActive(now) {
			out = append(out, *ads[i].Decorate(now))
		}
	}
	return out, nil
}

// Delete removes an ad.
func (s *AdService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, ErrAdNotFound)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAd(ctx, oid); err != nil {
		return mapNotFound(err, ErrAdNotFound)
	}
	s.metrics.IncContentChanged("ad", "delete")
	return nil
}

// RecordClick atomically counts a click.
func (s *AdService) RecordClick(ctx context.Context, id string) (*model.Ad, error) {
	return s.increment(ctx, id, repository.AdCounterClicks)
}

// RecordImpression atomically counts an impression.
func (s *AdService) RecordImpression(ctx context.Context, id string) (*model.Ad, error) {
	return s.increment(ctx, id, repository.AdCounterImpressions)
}

func (s *AdService) increment(ctx context.Context, id, field string) (*model.Ad, error) {
	oid, err := parseID(id, ErrAdNotFound)
	if err != nil {
		return nil, err
	}
	ad, err := s.store.IncrementAdCounter(ctx, oid, field)
	if err != nil {
		return nil, mapNotFound(err, ErrAdNotFound)
	}
	return ad.Decorate(s.now()), nil
}
