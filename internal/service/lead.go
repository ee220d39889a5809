package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/folio/folio/internal/geo"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/validation"
)

// LeadStore persists leads.
type LeadStore interface {
	CreateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id primitive.ObjectID) (*model.Lead, error)
	ListLeads(ctx context.Context, f repository.LeadFilter) ([]model.Lead, int64, error)
	UpdateLead(ctx context.Context, lead *model.Lead) error
	DeleteLead(ctx context.Context, id primitive.ObjectID) error
}

// LeadNotifier is told about new leads. Implementations must not block.
type LeadNotifier interface {
	LeadCreated(lead *model.Lead)
}

// CreateLeadInput is the contact form body.
type CreateLeadInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"required,max=5000"`
	Page    string `json:"page" validate:"max=200"`
	Path    string `json:"path" validate:"max=2048"`
}

// ListLeadsInput filters the admin lead list.
type ListLeadsInput struct {
	Status string
	Search string
	Start  *time.Time
	End    *time.Time
	SortBy string
	Page   int
	Limit  int
}

// UpdateLeadInput changes the review fields of a lead.
type UpdateLeadInput struct {
	Status *string `json:"status" validate:"omitempty,oneof=new contacted closed"`
	Notes  *string `json:"notes" validate:"omitempty,max=5000"`
}

// LeadService handles contact-form leads.
type LeadService struct {
	store    LeadStore
	geo      geo.Resolver
	notifier LeadNotifier
	logger   *slog.Logger
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewLeadService creates a LeadService. A nil notifier disables email.
func NewLeadService(store LeadStore, resolver geo.Resolver, notifier LeadNotifier, logger *slog.Logger, recorder metrics.Recorder) *LeadService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &LeadService{
		store:    store,
		geo:      resolver,
		notifier: notifier,
		logger:   logger.With("component", "service.lead"),
		metrics:  recorder,
		now:      time.Now,
	}
}

type nopNotifier struct{}

func (nopNotifier) LeadCreated(*model.Lead) {}

// Create stores a new lead and queues its notifications.
func (s *LeadService) Create(ctx context.Context, in CreateLeadInput, ip string) (*model.Lead, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, validation.NewError("message", "required", "name and message are required")
	}

	page := strings.TrimSpace(in.Page)
	if page == "" {
		page = model.DefaultLeadPage
	}
	path := strings.TrimSpace(in.Path)
	if path == "" {
		path = model.DefaultLeadPage
	}

	loc := s.geo.Resolve(ctx, ip)
	now := s.now().UTC()

	lead := &model.Lead{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Message:     in.Message,
		Page:        page,
		Path:        path,
		Country:     loc.Country,
		CountryCode: loc.CountryCode,
		Status:      model.LeadStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrLeadExists
		}
		return nil, fmt.Errorf("create lead: %w", err)
	}

	s.metrics.IncLeadCreated()
	s.logger.Info("lead created", "lead_id", lead.ID.Hex(), "page", lead.Page)
	s.notifier.LeadCreated(lead)
	return lead, nil
}

// List returns a page of leads and the total match count.
func (s *LeadService) List(ctx context.Context, in ListLeadsInput) ([]model.Lead, int64, repository.Page, error) {
	status := model.LeadStatus(in.Status)
	if status != "" && !status.IsValid() {
		return nil, 0, repository.Page{}, ErrInvalidStatus
	}

	page := repository.Page{Page: in.Page, Limit: in.Limit}.Normalize(20, 100)
	leads, total, err := s.store.ListLeads(ctx, repository.LeadFilter{
		Status: status,
		Search: strings.TrimSpace(in.Search),
		Window: repository.Window{Start: in.Start, End: in.End},
		SortBy: in.SortBy,
		Page:   page,
	})
	if err != nil {
		return nil, 0, page, fmt.Errorf("list leads: %w", err)
	}
	return leads, total, page, nil
}

// Get fetches a lead by id.
func (s *LeadService) Get(ctx context.Context, id string) (*model.Lead, error) {
	oid, err := parseID(id, ErrLeadNotFound)
	if err != nil {
		return nil, err
	}
	lead, err := s.store.GetLead(ctx, oid)
	if err != nil {
		return nil, mapNotFound(err, ErrLeadNotFound)
	}
	return lead, nil
}

// Update applies a review by admin.
func (s *LeadService) Update(ctx context.Context, id string, in UpdateLeadInput, admin primitive.ObjectID) (*model.Lead, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var status *model.LeadStatus
	if in.Status != nil {
		st := model.LeadStatus(*in.Status)
		status = &st
	}
	lead.ApplyReview(status, in.Notes, admin, now)
	lead.UpdatedAt = now

	if err := s.store.UpdateLead(ctx, lead); err != nil {
		return nil, mapNotFound(err, ErrLeadNotFound)
	}
	return lead, nil
}

// Delete removes a lead.
func (s *LeadService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, ErrLeadNotFound)
	if err != nil {
		return err
	}
	return mapNotFound(s.store.DeleteLead(ctx, oid), ErrLeadNotFound)
}
