// Package model defines domain entities for the application.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visit is a single tracked page load. Visits are immutable once written.
// The client IP is never part of the record.
type Visit struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Page           string             `bson:"page" json:"page"`
	Path           string             `bson:"path" json:"path"`
	SessionID      string             `bson:"sessionId" json:"sessionId"`
	IsUnique       bool               `bson:"isUnique" json:"isUnique"`
	Device         string             `bson:"device" json:"device"`
	Browser        string             `bson:"browser" json:"browser"`
	OS             string             `bson:"os" json:"os"`
	UserAgent      string             `bson:"userAgent" json:"userAgent,omitempty"`
	Referrer       string             `bson:"referrer" json:"referrer"`
	ReferrerDomain *string            `bson:"referrerDomain" json:"referrerDomain"`
	Country        string             `bson:"country" json:"country"`
	CountryCode    string             `bson:"countryCode" json:"countryCode"`
	City           string             `bson:"city" json:"city"`
	Region         string             `bson:"region" json:"region"`
	DoNotTrack     bool               `bson:"doNotTrack" json:"doNotTrack"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
}

// Event is a custom client-side action such as a button click or download.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventName   string             `bson:"eventName" json:"eventName"`
	Page        string             `bson:"page" json:"page"`
	Path        string             `bson:"path" json:"path"`
	Metadata    map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
	SessionID   string             `bson:"sessionId" json:"sessionId"`
	Country     string             `bson:"country" json:"country"`
	CountryCode string             `bson:"countryCode" json:"countryCode"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}
