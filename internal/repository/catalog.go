package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/folio/internal/model"
)

// CatalogFilter filters projects and services.
type CatalogFilter struct {
	Featured   *bool
	Category   string
	ActiveOnly bool
}

var catalogSort = bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}

// idOrSlug matches a document by ObjectID hex or by slug.
func idOrSlug(key string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(key); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"slug": key}
}

// CreateProject inserts a project.
func (r *Repository) CreateProject(ctx context.Context, p *model.Project) error {
	id, err := r.insert(ctx, CollProjects, p)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	p.ID = id
	return nil
}

// GetProject fetches a project by id or slug.
func (r *Repository) GetProject(ctx context.Context, key string) (*model.Project, error) {
	var p model.Project
	if err := r.coll(CollProjects).FindOne(ctx, idOrSlug(key)).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListProjects returns projects ordered by display order.
func (r *Repository) ListProjects(ctx context.Context, f CatalogFilter) ([]model.Project, error) {
	q := bson.M{}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if f.Category != "" {
		q["category"] = f.Category
	}

	cur, err := r.coll(CollProjects).Find(ctx, q, options.Find().SetSort(catalogSort))
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	projects := []model.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return projects, nil
}

// UpdateProject replaces a project document.
func (r *Repository) UpdateProject(ctx context.Context, p *model.Project) error {
	return r.replaceByID(ctx, CollProjects, p.ID, p)
}

// DeleteProject removes a project.
func (r *Repository) DeleteProject(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, CollProjects, id)
}

// CreateService inserts a service.
func (r *Repository) CreateService(ctx context.Context, s *model.Service) error {
	id, err := r.insert(ctx, CollServices, s)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	s.ID = id
	return nil
}

// GetService fetches a service by id or slug.
func (r *Repository) GetService(ctx context.Context, key string) (*model.Service, error) {
	var s model.Service
	if err := r.coll(CollServices).FindOne(ctx, idOrSlug(key)).Decode(&s); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// ListServices returns services ordered by display order.
func (r *Repository) ListServices(ctx context.Context, f CatalogFilter) ([]model.Service, error) {
	q := bson.M{}
	if f.Featured != nil {
		q["featured"] = *f.Featured
	}
	if f.ActiveOnly {
		q["active"] = true
	}

	cur, err := r.coll(CollServices).Find(ctx, q, options.Find().SetSort(catalogSort))
	if err != nil {
		return nil, fmt.Errorf("find services: %w", err)
	}
	services := []model.Service{}
	if err := cur.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("decode services: %w", err)
	}
	return services, nil
}

// UpdateService replaces a service document.
func (r *Repository) UpdateService(ctx context.Context, s *model.Service) error {
	return r.replaceByID(ctx, CollServices, s.ID, s)
}

// DeleteService removes a service.
func (r *Repository) DeleteService(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, CollServices, id)
}
