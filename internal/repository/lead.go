package repository

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folio/folio/internal/model"
)

// LeadFilter defines filters for listing leads.
type LeadFilter struct {
	Status model.LeadStatus
	Search string
	Window Window
	// SortBy is a field name; a leading "-" sorts descending.
	SortBy string
	Page   Page
}

var leadSortFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"name":      true,
	"email":     true,
	"status":    true,
}

func (f LeadFilter) query() bson.M {
	q := f.Window.filter("createdAt")
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
			bson.M{"message": pattern},
		}
	}
	return q
}

// sortSpec turns "-createdAt" style input into a sort document.
func sortSpec(sortBy string, allowed map[string]bool, fallback string) bson.D {
	dir := 1
	field := sortBy
	if len(field) > 0 && field[0] == '-' {
		dir = -1
		field = field[1:]
	}
	if !allowed[field] {
		return bson.D{{Key: fallback, Value: -1}}
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

// CreateLead inserts a lead. A lead with an existing email returns ErrDuplicateKey.
func (r *Repository) CreateLead(ctx context.Context, lead *model.Lead) error {
	id, err := r.insert(ctx, CollLeads, lead)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	lead.ID = id
	return nil
}

// GetLead fetches a lead by id.
func (r *Repository) GetLead(ctx context.Context, id primitive.ObjectID) (*model.Lead, error) {
	var lead model.Lead
	if err := r.findByID(ctx, CollLeads, id, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// ListLeads returns a page of leads and the total matching count.
func (r *Repository) ListLeads(ctx context.Context, f LeadFilter) ([]model.Lead, int64, error) {
	q := f.query()
	total, err := r.coll(CollLeads).CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	opts := options.Find().
		SetSort(sortSpec(f.SortBy, leadSortFields, "createdAt")).
		SetSkip(f.Page.skip()).
		SetLimit(int64(f.Page.Limit))

	cur, err := r.coll(CollLeads).Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find leads: %w", err)
	}
	leads := []model.Lead{}
	if err := cur.All(ctx, &leads); err != nil {
		return nil, 0, fmt.Errorf("decode leads: %w", err)
	}
	return leads, total, nil
}

// UpdateLead replaces a lead document.
func (r *Repository) UpdateLead(ctx context.Context, lead *model.Lead) error {
	return r.replaceByID(ctx, CollLeads, lead.ID, lead)
}

// DeleteLead removes a lead.
func (r *Repository) DeleteLead(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, CollLeads, id)
}

// EachLead streams leads matching f in creation order.
func (r *Repository) EachLead(ctx context.Context, f LeadFilter, fn func(*model.Lead) error) error {
	cur, err := r.coll(CollLeads).Find(ctx, f.query(), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return fmt.Errorf("find leads: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var lead model.Lead
		if err := cur.Decode(&lead); err != nil {
			return fmt.Errorf("decode lead: %w", err)
		}
		if err := fn(&lead); err != nil {
			return err
		}
	}
	return cur.Err()
}
