package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdStatus is the lifecycle state of an ad.
type AdStatus string

const (
	AdStatusDraft   AdStatus = "draft"
	AdStatusActive  AdStatus = "active"
	AdStatusExpired AdStatus = "expired"
)

// IsValid reports whether s is a known ad status.
func (s AdStatus) IsValid() bool {
	switch s {
	case AdStatusDraft, AdStatusActive, AdStatusExpired:
		return true
	}
	return false
}

// Ad is a promotional banner shown on the public site.
type Ad struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Image       string             `bson:"image" json:"image"`
	Link        string             `bson:"link" json:"link"`
	Priority    int                `bson:"priority" json:"priority"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	EndDate     time.Time          `bson:"endDate" json:"endDate"`
	Status      AdStatus           `bson:"status" json:"status"`
	// AutoStatus is false only when an admin pinned the ad to draft.
	AutoStatus  bool      `bson:"autoStatus" json:"-"`
	Clicks      int64     `bson:"clicks" json:"clicks"`
	Impressions int64     `bson:"impressions" json:"impressions"`
	Active      bool      `bson:"-" json:"isActive"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DeriveAdStatus computes the stored status for an ad. An explicit draft
// is kept; otherwise the status follows the date window.
func DeriveAdStatus(requested AdStatus, start, end, now time.Time) AdStatus {
	if requested == AdStatusDraft {
		return AdStatusDraft
	}
	switch {
	case end.Before(now):
		return AdStatusExpired
	case !start.After(now):
		return AdStatusActive
	default:
		return AdStatusDraft
	}
}

// ApplyStatus re-derives Status. requested may be empty, in which case a
// previously pinned draft stays pinned.
func (a *Ad) ApplyStatus(requested AdStatus, now time.Time) {
	if requested == "" && !a.AutoStatus && a.Status == AdStatusDraft {
		requested = AdStatusDraft
	}
	a.AutoStatus = requested != AdStatusDraft
	a.Status = DeriveAdStatus(requested, a.StartDate, a.EndDate, now)
}

// IsActive reports whether the ad should be served at now. It depends only
// on the status and the date bounds, not on whether Status is up to date.
func (a *Ad) IsActive(now time.Time) bool {
	if a.Status == AdStatusDraft && !a.AutoStatus {
		return false
	}
	return !now.Before(a.StartDate) && !now.After(a.EndDate)
}

// Decorate fills the read-time fields.
func (a *Ad) Decorate(now time.Time) *Ad {
	a.Active = a.IsActive(now)
	return a
}
