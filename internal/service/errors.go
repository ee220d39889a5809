// Package service provides business logic for the application.
package service

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/folio/folio/internal/repository"
)

// Service errors.
var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrLeadExists         = errors.New("a lead with this email already exists")
	ErrPostNotFound       = errors.New("blog post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrAdNotFound         = errors.New("ad not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrServiceNotFound    = errors.New("service not found")
	ErrSlugTaken          = errors.New("slug already exists")
	ErrInvalidDateRange   = errors.New("end date must not precede start date")
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrInvalidBucket      = errors.New("period must be day or month")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// parseID converts a path id into an ObjectID. Malformed ids map to
// notFound so callers answer 404 rather than 400.
func parseID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}

// mapNotFound swaps repository.ErrNotFound for the service's own sentinel.
func mapNotFound(err, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
