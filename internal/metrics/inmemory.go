package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	VisitsUnique           uint64
	VisitsRepeat           uint64
	VisitsSkipped          uint64
	EventsRecorded         uint64
	EventsSkipped          uint64
	GeoLookups             map[string]uint64 // keyed by "source/status"
	GeoLookupCount         uint64
	LeadsCreated           uint64
	CommentsAccepted       uint64
	CommentsSpam           uint64
	ContentChanges         map[string]uint64 // keyed by "kind/action"
	Reconciled             map[string]uint64
	NotificationsPublished uint64
	NotificationsDropped   uint64
	NotificationsProcessed map[string]uint64
	NotificationQueueDepth int64
	CircuitBreakerStates   map[string]string
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	visitsUnique           uint64
	visitsRepeat           uint64
	visitsSkipped          uint64
	eventsRecorded         uint64
	eventsSkipped          uint64
	geoLookupCount         uint64
	leadsCreated           uint64
	commentsAccepted       uint64
	commentsSpam           uint64
	notificationsPublished uint64
	notificationsDropped   uint64
	notificationQueueDepth int64

	mu       sync.Mutex
	labelled map[string]map[string]uint64
	breakers map[string]string
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		labelled: make(map[string]map[string]uint64),
		breakers: make(map[string]string),
	}
}

func (m *InMemoryRecorder) addLabelled(family, key string, n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.labelled[family] == nil {
		m.labelled[family] = make(map[string]uint64)
	}
	m.labelled[family][key] += n
}

func (m *InMemoryRecorder) copyLabelled(family string) map[string]uint64 {
	out := make(map[string]uint64, len(m.labelled[family]))
	for k, v := range m.labelled[family] {
		out[k] = v
	}
	return out
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	breakers := make(map[string]string, len(m.breakers))
	for k, v := range m.breakers {
		breakers[k] = v
	}

	return Snapshot{
		VisitsUnique:           atomic.LoadUint64(&m.visitsUnique),
		VisitsRepeat:           atomic.LoadUint64(&m.visitsRepeat),
		VisitsSkipped:          atomic.LoadUint64(&m.visitsSkipped),
		EventsRecorded:         atomic.LoadUint64(&m.eventsRecorded),
		EventsSkipped:          atomic.LoadUint64(&m.eventsSkipped),
		GeoLookups:             m.copyLabelled("geo"),
		GeoLookupCount:         atomic.LoadUint64(&m.geoLookupCount),
		LeadsCreated:           atomic.LoadUint64(&m.leadsCreated),
		CommentsAccepted:       atomic.LoadUint64(&m.commentsAccepted),
		CommentsSpam:           atomic.LoadUint64(&m.commentsSpam),
		ContentChanges:         m.copyLabelled("content"),
		Reconciled:             m.copyLabelled("reconcile"),
		NotificationsPublished: atomic.LoadUint64(&m.notificationsPublished),
		NotificationsDropped:   atomic.LoadUint64(&m.notificationsDropped),
		NotificationsProcessed: m.copyLabelled("notify"),
		NotificationQueueDepth: atomic.LoadInt64(&m.notificationQueueDepth),
		CircuitBreakerStates:   breakers,
	}
}

// IncVisitTracked increments the visit counter for status.
func (m *InMemoryRecorder) IncVisitTracked(status string) {
	switch status {
	case "unique":
		atomic.AddUint64(&m.visitsUnique, 1)
	case "repeat":
		atomic.AddUint64(&m.visitsRepeat, 1)
	case "skipped":
		atomic.AddUint64(&m.visitsSkipped, 1)
	}
}

// IncEventTracked increments the event counter for status.
func (m *InMemoryRecorder) IncEventTracked(status string) {
	if status == "skipped" {
		atomic.AddUint64(&m.eventsSkipped, 1)
		return
	}
	atomic.AddUint64(&m.eventsRecorded, 1)
}

// IncGeoLookup counts a lookup by source and outcome.
func (m *InMemoryRecorder) IncGeoLookup(source, status string) {
	m.addLabelled("geo", source+"/"+status, 1)
}

// ObserveGeoLookupDuration records one resolution.
func (m *InMemoryRecorder) ObserveGeoLookupDuration(duration time.Duration) {
	atomic.AddUint64(&m.geoLookupCount, 1)
}

// SetCircuitBreakerState stores the latest state of a breaker.
func (m *InMemoryRecorder) SetCircuitBreakerState(name string, state string) {
	m.mu.Lock()
	m.breakers[name] = state
	m.mu.Unlock()
}

// IncLeadCreated increments lead created counter.
func (m *InMemoryRecorder) IncLeadCreated() {
	atomic.AddUint64(&m.leadsCreated, 1)
}

// IncCommentSubmitted increments the comment counter for status.
func (m *InMemoryRecorder) IncCommentSubmitted(status string) {
	if status == "spam" {
		atomic.AddUint64(&m.commentsSpam, 1)
		return
	}
	atomic.AddUint64(&m.commentsAccepted, 1)
}

// IncContentChanged counts an admin write.
func (m *InMemoryRecorder) IncContentChanged(kind, action string) {
	m.addLabelled("content", kind+"/"+action, 1)
}

// IncReconciled counts documents updated by the reconcile worker.
func (m *InMemoryRecorder) IncReconciled(kind string, count int) {
	if count <= 0 {
		return
	}
	m.addLabelled("reconcile", kind, uint64(count))
}

// IncNotificationPublished counts enqueue attempts.
func (m *InMemoryRecorder) IncNotificationPublished(status string) {
	if status == "dropped" {
		atomic.AddUint64(&m.notificationsDropped, 1)
		return
	}
	atomic.AddUint64(&m.notificationsPublished, 1)
}

// IncNotificationProcessed counts delivered or failed notifications.
func (m *InMemoryRecorder) IncNotificationProcessed(status string) {
	m.addLabelled("notify", status, 1)
}

// SetNotificationQueueDepth stores the pending message count.
func (m *InMemoryRecorder) SetNotificationQueueDepth(depth int64) {
	atomic.StoreInt64(&m.notificationQueueDepth, depth)
}
