package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeadStatus is the review state of a contact-form submission.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusClosed    LeadStatus = "closed"
)

// IsValid reports whether s is a known lead status.
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusClosed:
		return true
	}
	return false
}

// DefaultLeadPage is used for page and path when the form omits them.
const DefaultLeadPage = "contact"

// Lead is a contact-form submission.
type Lead struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Email       string              `bson:"email" json:"email"`
	Message     string              `bson:"message" json:"message"`
	Page        string              `bson:"page" json:"page"`
	Path        string              `bson:"path" json:"path"`
	Country     string              `bson:"country" json:"country"`
	CountryCode string              `bson:"countryCode" json:"countryCode"`
	Status      LeadStatus          `bson:"status" json:"status"`
	Notes       string              `bson:"notes" json:"notes"`
	ContactedAt *time.Time          `bson:"contactedAt,omitempty" json:"contactedAt,omitempty"`
	ContactedBy *primitive.ObjectID `bson:"contactedBy,omitempty" json:"contactedBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ApplyReview sets the review fields. The first move into "contacted"
// stamps ContactedAt and ContactedBy; later updates leave them alone.
func (l *Lead) ApplyReview(status *LeadStatus, notes *string, admin primitive.ObjectID, now time.Time) {
	if notes != nil {
		l.Notes = *notes
	}
	if status == nil {
		return
	}
	l.Status = *status
	if *status == LeadStatusContacted && l.ContactedAt == nil {
		at := now
		l.ContactedAt = &at
		if !admin.IsZero() {
			by := admin
			l.ContactedBy = &by
		}
	}
}
