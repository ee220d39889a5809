package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder exports application metrics through a Prometheus registry.
type PrometheusRecorder struct {
	visitsTracked          *prometheus.CounterVec
	eventsTracked          *prometheus.CounterVec
	geoLookups             *prometheus.CounterVec
	geoLookupDuration      prometheus.Histogram
	circuitBreakerState    *prometheus.GaugeVec
	leadsCreated           prometheus.Counter
	commentsSubmitted      *prometheus.CounterVec
	contentChanges         *prometheus.CounterVec
	reconciled             *prometheus.CounterVec
	notificationsPublished *prometheus.CounterVec
	notificationsProcessed *prometheus.CounterVec
	notificationQueueDepth prometheus.Gauge
}

// NewPrometheus registers the application collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	f := promauto.With(reg)

	return &PrometheusRecorder{
		visitsTracked: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_visits_tracked_total",
				Help: "Total number of page visits handled by the tracking endpoint",
			},
			[]string{"status"},
		),
		eventsTracked: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_events_tracked_total",
				Help: "Total number of custom events handled by the tracking endpoint",
			},
			[]string{"status"},
		),
		geoLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_geo_lookups_total",
				Help: "Geolocation lookups by source and outcome",
			},
			[]string{"source", "status"},
		),
		geoLookupDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "folio_geo_lookup_duration_seconds",
				Help:    "Time spent resolving a client location",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		circuitBreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "folio_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		leadsCreated: f.NewCounter(
			prometheus.CounterOpts{
				Name: "folio_leads_created_total",
				Help: "Total number of contact-form leads stored",
			},
		),
		commentsSubmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_comments_submitted_total",
				Help: "Blog comments submitted by outcome",
			},
			[]string{"status"},
		),
		contentChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_content_changes_total",
				Help: "Admin content writes by kind and action",
			},
			[]string{"kind", "action"},
		),
		reconciled: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_reconciled_total",
				Help: "Documents updated by the reconcile worker",
			},
			[]string{"kind"},
		),
		notificationsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_notifications_published_total",
				Help: "Notification jobs enqueued by outcome",
			},
			[]string{"status"},
		),
		notificationsProcessed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_notifications_processed_total",
				Help: "Notification jobs processed by outcome",
			},
			[]string{"status"},
		),
		notificationQueueDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "folio_notification_queue_depth",
				Help: "Pending notification jobs in the stream",
			},
		),
	}
}

func (p *PrometheusRecorder) IncVisitTracked(status string) {
	p.visitsTracked.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncEventTracked(status string) {
	p.eventsTracked.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncGeoLookup(source, status string) {
	p.geoLookups.WithLabelValues(source, status).Inc()
}

func (p *PrometheusRecorder) ObserveGeoLookupDuration(duration time.Duration) {
	p.geoLookupDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) SetCircuitBreakerState(name string, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	p.circuitBreakerState.WithLabelValues(name).Set(v)
}

func (p *PrometheusRecorder) IncLeadCreated() {
	p.leadsCreated.Inc()
}

func (p *PrometheusRecorder) IncCommentSubmitted(status string) {
	p.commentsSubmitted.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncContentChanged(kind, action string) {
	p.contentChanges.WithLabelValues(kind, action).Inc()
}

func (p *PrometheusRecorder) IncReconciled(kind string, count int) {
	if count > 0 {
		p.reconciled.WithLabelValues(kind).Add(float64(count))
	}
}

func (p *PrometheusRecorder) IncNotificationPublished(status string) {
	p.notificationsPublished.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncNotificationProcessed(status string) {
	p.notificationsProcessed.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) SetNotificationQueueDepth(depth int64) {
	p.notificationQueueDepth.Set(float64(depth))
}
