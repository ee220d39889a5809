// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory for tests.
type Recorder interface {
	// Tracking metrics
	IncVisitTracked(status string) // status: "unique", "repeat", "skipped"
	IncEventTracked(status string) // status: "recorded", "skipped"

	// Geolocation metrics
	IncGeoLookup(source, status string) // status: "success", "failure", "private", "cache_hit"
	ObserveGeoLookupDuration(duration time.Duration)
	SetCircuitBreakerState(name string, state string)

	// Content metrics
	IncLeadCreated()
	IncCommentSubmitted(status string) // status: "accepted", "spam"
	IncContentChanged(kind, action string)
	IncReconciled(kind string, count int)

	// Notification pipeline metrics
	IncNotificationPublished(status string) // status: "success" or "dropped"
	IncNotificationProcessed(status string) // status: "success", "failed", "dead_letter"
	SetNotificationQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
