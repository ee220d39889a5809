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

// ProjectStore persists portfolio projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, key string) (*model.Project, error)
	ListProjects(ctx context.Context, f repository.CatalogFilter) ([]model.Project, error)
	UpdateProject(ctx context.Context, p *model.Project) error
	DeleteProject(ctx context.Context, id primitive.ObjectID) error
}

// ServiceStore persists service offerings.
type ServiceStore interface {
	CreateService(ctx context.Context, s *model.Service) error
	GetService(ctx context.Context, key string) (*model.Service, error)
	ListServices(ctx context.Context, f repository.CatalogFilter) ([]model.Service, error)
	UpdateService(ctx context.Context, s *model.Service) error
	DeleteService(ctx context.Context, id primitive.ObjectID) error
}

// ProjectInput is the body for creating or replacing a project.
type ProjectInput struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Slug            string   `json:"slug" validate:"max=200"`
	Description     string   `json:"description" validate:"required,max=1000"`
	LongDescription string   `json:"longDescription" validate:"max=20000"`
	Image           string   `json:"image" validate:"max=2048"`
	Images          []string `json:"images" validate:"max=20,dive,max=2048"`
	Category        string   `json:"category" validate:"max=100"`
	Tags            []string `json:"tags" validate:"max=20,dive,max=50"`
	Technologies    []string `json:"technologies" validate:"max=30,dive,max=50"`
	LiveURL         string   `json:"liveUrl" validate:"omitempty,url,max=2048"`
	RepoURL         string   `json:"repoUrl" validate:"omitempty,url,max=2048"`
	Featured        bool     `json:"featured"`
	Order           int      `json:"order"`
}

// ServiceInput is the body for creating or replacing a service offering.
type ServiceInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Slug        string   `json:"slug" validate:"max=200"`
	Description string   `json:"description" validate:"required,max=2000"`
	Icon        string   `json:"icon" validate:"max=200"`
	Features    []string `json:"features" validate:"max=30,dive,max=200"`
	Price       string   `json:"price" validate:"max=100"`
	Featured    bool     `json:"featured"`
	Active      *bool    `json:"active"`
	Order       int      `json:"order"`
}

// ProjectService manages portfolio projects.
type ProjectService struct {
	store   ProjectStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewProjectService creates a ProjectService.
func NewProjectService(store ProjectStore, logger *slog.Logger, recorder metrics.Recorder) *ProjectService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ProjectService{
		store:   store,
		logger:  logger.With("component", "service.project"),
		metrics: recorder,
		now:     time.Now,
	}
}

// List returns projects ordered by position, then newest.
func (s *ProjectService) List(ctx context.Context, featured *bool, category string) ([]model.Project, error) {
	projects, err := s.store.ListProjects(ctx, repository.CatalogFilter{Featured: featured, Category: strings.TrimSpace(category)})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Get fetches a project by id or slug.
func (s *ProjectService) Get(ctx context.Context, key string) (*model.Project, error) {
	p, err := s.store.GetProject(ctx, key)
	if err != nil {
		return nil, mapNotFound(err, ErrProjectNotFound)
	}
	return p, nil
}

// Create stores a new project.
func (s *ProjectService) Create(ctx context.Context, in ProjectInput) (*model.Project, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &model.Project{CreatedAt: now}
	if err := applyProject(p, in, now); err != nil {
		return nil, err
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.metrics.IncContentChanged("project", "create")
	return p, nil
}

// Update replaces the editable fields of a project.
func (s *ProjectService) Update(ctx context.Context, id string, in ProjectInput) (*model.Project, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if _, err := parseID(id, ErrProjectNotFound); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProject(p, in, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProject(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, mapNotFound(err, ErrProjectNotFound)
	}
	s.metrics.IncContentChanged("project", "update")
	return p, nil
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, ErrProjectNotFound)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, oid); err != nil {
		return mapNotFound(err, ErrProjectNotFound)
	}
	s.metrics.IncContentChanged("project", "delete")
	return nil
}

func applyProject(p *model.Project, in ProjectInput, now time.Time) error {
	slug, err := catalogSlug(in.Slug, in.Title)
	if err != nil {
		return err
	}
	p.Title = strings.TrimSpace(in.Title)
	p.Slug = slug
	p.Description = in.Description
	p.LongDescription = in.LongDescription
	p.Image = in.Image
	p.Images = nonNil(in.Images)
	p.Category = strings.TrimSpace(in.Category)
	p.Tags = content.NormalizeTags(in.Tags)
	p.Technologies = nonNil(in.Technologies)
	p.LiveURL = in.LiveURL
	p.RepoURL = in.RepoURL
	p.Featured = in.Featured
	p.Order = in.Order
	p.UpdatedAt = now
	return nil
}

// ServiceCatalog manages the service offerings page.
type ServiceCatalog struct {
	store   ServiceStore
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewServiceCatalog creates a ServiceCatalog.
func NewServiceCatalog(store ServiceStore, logger *slog.Logger, recorder metrics.Recorder) *ServiceCatalog {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ServiceCatalog{
		store:   store,
		logger:  logger.With("component", "service.catalog"),
		metrics: recorder,
		now:     time.Now,
	}
}

// List returns services. activeOnly hides inactive offerings.
func (s *ServiceCatalog) List(ctx context.Context, featured *bool, activeOnly bool) ([]model.Service, error) {
	services, err := s.store.ListServices(ctx, repository.CatalogFilter{Featured: featured, ActiveOnly: activeOnly})
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// Get fetches a service by id or slug.
func (s *ServiceCatalog) Get(ctx context.Context, key string) (*model.Service, error) {
	svc, err := s.store.GetService(ctx, key)
	if err != nil {
		return nil, mapNotFound(err, ErrServiceNotFound)
	}
	return svc, nil
}

// Create stores a new service offering. Active defaults to true.
func (s *ServiceCatalog) Create(ctx context.Context, in ServiceInput) (*model.Service, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	svc := &model.Service{CreatedAt: now, Active: true}
	if err := applyService(svc, in, now); err != nil {
		return nil, err
	}
	if err := s.store.CreateService(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create service: %w", err)
	}
	s.metrics.IncContentChanged("service", "create")
	return svc, nil
}

// Update replaces the editable fields of a service offering.
func (s *ServiceCatalog) Update(ctx context.Context, id string, in ServiceInput) (*model.Service, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if _, err := parseID(id, ErrServiceNotFound); err != nil {
		return nil, err
	}
	svc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyService(svc, in, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateService(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, mapNotFound(err, ErrServiceNotFound)
	}
	s.metrics.IncContentChanged("service", "update")
	return svc, nil
}

// Delete removes a service offering.
func (s *ServiceCatalog) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, ErrServiceNotFound)
	if err != nil {
		return err
	}
	if err := s.store.DeleteService(ctx, oid); err != nil {
		return mapNotFound(err, ErrServiceNotFound)
	}
	s.metrics.IncContentChanged("service", "delete")
	return nil
}

func applyService(svc *model.Service, in ServiceInput, now time.Time) error {
	slug, err := catalogSlug(in.Slug, in.Title)
	if err != nil {
		return err
	}
	svc.Title = strings.TrimSpace(in.Title)
	svc.Slug = slug
	svc.Description = in.Description
	svc.Icon = in.Icon
	svc.Features = nonNil(in.Features)
	svc.Price = in.Price
	svc.Featured = in.Featured
	if in.Active != nil {
		svc.Active = *in.Active
	}
	svc.Order = in.Order
	svc.UpdatedAt = now
	return nil
}

func catalogSlug(slug, title string) (string, error) {
	out := content.Slugify(slug)
	if out == "" {
		out = content.Slugify(title)
	}
	if out == "" {
		return "", validation.NewError("slug", "required", "slug could not be derived from title")
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
