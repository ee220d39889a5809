package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncVisitTracked(status string)                    {}
func (n *NoopRecorder) IncEventTracked(status string)                    {}
func (n *NoopRecorder) IncGeoLookup(source, status string)               {}
func (n *NoopRecorder) ObserveGeoLookupDuration(duration time.Duration)  {}
func (n *NoopRecorder) SetCircuitBreakerState(name string, state string) {}
func (n *NoopRecorder) IncLeadCreated()                                  {}
func (n *NoopRecorder) IncCommentSubmitted(status string)                {}
func (n *NoopRecorder) IncContentChanged(kind, action string)            {}
func (n *NoopRecorder) IncReconciled(kind string, count int)             {}
func (n *NoopRecorder) IncNotificationPublished(status string)           {}
func (n *NoopRecorder) IncNotificationProcessed(status string)           {}
func (n *NoopRecorder) SetNotificationQueueDepth(depth int64)            {}
