package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ Recorder = (*NoopRecorder)(nil)
	_ Recorder = (*InMemoryRecorder)(nil)
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncVisitTracked("unique")
	m.IncVisitTracked("repeat")
	m.IncVisitTracked("repeat")
	m.IncVisitTracked("skipped")
	m.IncEventTracked("recorded")
	m.IncGeoLookup("ip-api", "success")
	m.IncGeoLookup("ip-api", "success")
	m.ObserveGeoLookupDuration(time.Millisecond)
	m.IncLeadCreated()
	m.IncCommentSubmitted("spam")
	m.IncContentChanged("post", "created")
	m.IncReconciled("post", 3)
	m.IncReconciled("ad", 0)
	m.IncNotificationPublished("dropped")
	m.IncNotificationProcessed("dead_letter")
	m.SetNotificationQueueDepth(7)
	m.SetCircuitBreakerState("geo-primary", "open")

	s := m.Snapshot()
	if s.VisitsUnique != 1 || s.VisitsRepeat != 2 || s.VisitsSkipped != 1 {
		t.Errorf("unexpected visit counters: %+v", s)
	}
	if s.EventsRecorded != 1 || s.LeadsCreated != 1 || s.CommentsSpam != 1 {
		t.Errorf("unexpected counters: %+v", s)
	}
	if s.GeoLookups["ip-api/success"] != 2 || s.GeoLookupCount != 1 {
		t.Errorf("unexpected geo counters: %v %d", s.GeoLookups, s.GeoLookupCount)
	}
	if s.ContentChanges["post/created"] != 1 {
		t.Errorf("unexpected content changes: %v", s.ContentChanges)
	}
	if s.Reconciled["post"] != 3 {
		t.Errorf("unexpected reconcile counters: %v", s.Reconciled)
	}
	if _, ok := s.Reconciled["ad"]; ok {
		t.Error("zero reconcile counts should not be recorded")
	}
	if s.NotificationsDropped != 1 || s.NotificationsProcessed["dead_letter"] != 1 || s.NotificationQueueDepth != 7 {
		t.Errorf("unexpected notification counters: %+v", s)
	}
	if s.CircuitBreakerStates["geo-primary"] != "open" {
		t.Errorf("unexpected breaker states: %v", s.CircuitBreakerStates)
	}
}

func TestPrometheusRecorder(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncVisitTracked("unique")
	p.IncLeadCreated()
	p.IncLeadCreated()
	p.SetCircuitBreakerState("geo-primary", "open")

	if got := testutil.ToFloat64(p.visitsTracked.WithLabelValues("unique")); got != 1 {
		t.Errorf("visits unique = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.leadsCreated); got != 2 {
		t.Errorf("leads created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.circuitBreakerState.WithLabelValues("geo-primary")); got != 2 {
		t.Errorf("breaker state = %v, want 2", got)
	}
}
