package model

import "time"

// Overview is the headline dashboard summary.
type Overview struct {
	TotalVisits    int64 `json:"totalVisits"`
	UniqueVisitors int64 `json:"uniqueVisitors"`
	TotalLeads     int64 `json:"totalLeads"`
	NewLeads       int64 `json:"newLeads"`
	TotalEvents    int64 `json:"totalEvents"`
}

// TrafficPoint is one time bucket of visits.
type TrafficPoint struct {
	Date           string `bson:"_id" json:"date"`
	Visits         int64  `bson:"visits" json:"visits"`
	UniqueVisitors int64  `bson:"uniqueVisitors" json:"uniqueVisitors"`
}

// CountryBreakdown is visits grouped by country.
type CountryBreakdown struct {
	Country        string `bson:"_id" json:"country"`
	CountryCode    string `bson:"countryCode" json:"countryCode"`
	Visits         int64  `bson:"visits" json:"visits"`
	UniqueVisitors int64  `bson:"uniqueVisitors" json:"uniqueVisitors"`
}

// PageBreakdown is visits grouped by page.
type PageBreakdown struct {
	Page           string `bson:"_id" json:"page"`
	Path           string `bson:"path" json:"path"`
	Visits         int64  `bson:"visits" json:"visits"`
	UniqueVisitors int64  `bson:"uniqueVisitors" json:"uniqueVisitors"`
}

// EventBreakdown is events grouped by name.
type EventBreakdown struct {
	EventName string `bson:"_id" json:"eventName"`
	Count     int64  `bson:"count" json:"count"`
}

// RecentVisit is the reduced projection shown in the live feed.
type RecentVisit struct {
	Page        string    `bson:"page" json:"page"`
	Path        string    `bson:"path" json:"path"`
	Country     string    `bson:"country" json:"country"`
	CountryCode string    `bson:"countryCode" json:"countryCode"`
	City        string    `bson:"city" json:"city"`
	Device      string    `bson:"device" json:"device"`
	Browser     string    `bson:"browser" json:"browser"`
	Referrer    string    `bson:"referrer" json:"referrer"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}
