package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/folio/folio/internal/geo"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/tracking"
	"github.com/folio/folio/internal/validation"
)

// TrackingStore persists visits and events.
type TrackingStore interface {
	MarkDailySession(ctx context.Context, sessionID string, at time.Time) (bool, error)
	ReleaseDailySession(ctx context.Context, sessionID string, at time.Time) error
	CreateVisit(ctx context.Context, v *model.Visit) error
	CreateEvent(ctx context.Context, e *model.Event) error
}

// RequestMeta is what the transport layer knows about the caller. IP is
// used for geolocation and session derivation and is never stored.
type RequestMeta struct {
	IP         string
	UserAgent  string
	Referer    string
	DoNotTrack bool
}

// TrackVisitInput is the body of a page-visit beacon.
type TrackVisitInput struct {
	Page      string `json:"page" validate:"required,max=200"`
	Path      string `json:"path" validate:"required,max=2048"`
	Referrer  string `json:"referrer" validate:"max=2048"`
	SessionID string `json:"sessionId" validate:"max=64"`
}

// TrackVisitResult is returned for a visit beacon.
type TrackVisitResult struct {
	Skipped   bool   `json:"skipped,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	IsUnique  bool   `json:"isUnique"`
}

// TrackEventInput is the body of a custom-event beacon.
type TrackEventInput struct {
	EventName string         `json:"eventName" validate:"required,max=100"`
	Page      string         `json:"page" validate:"required,max=200"`
	Path      string         `json:"path" validate:"required,max=2048"`
	Metadata  map[string]any `json:"metadata" validate:"max=50"`
	SessionID string         `json:"sessionId" validate:"max=64"`
}

// TrackEventResult is returned for an event beacon.
type TrackEventResult struct {
	Skipped bool   `json:"skipped,omitempty"`
	EventID string `json:"eventId,omitempty"`
}

// TrackingService records visits and custom events.
type TrackingService struct {
	store   TrackingStore
	geo     geo.Resolver
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewTrackingService creates a TrackingService.
func NewTrackingService(store TrackingStore, resolver geo.Resolver, logger *slog.Logger, recorder metrics.Recorder) *TrackingService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TrackingService{
		store:   store,
		geo:     resolver,
		logger:  logger.With("component", "service.tracking"),
		metrics: recorder,
		now:     time.Now,
	}
}

// TrackVisit records a page view. Do-Not-Track requests are acknowledged
// without writing anything.
func (s *TrackingService) TrackVisit(ctx context.Context, in TrackVisitInput, meta RequestMeta) (*TrackVisitResult, error) {
	if meta.DoNotTrack {
		s.metrics.IncVisitTracked("skipped")
		return &TrackVisitResult{Skipped: true}, nil
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sessionID := s.sessionID(in.SessionID, meta, now)

	unique, err := s.store.MarkDailySession(ctx, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("mark daily session: %w", err)
	}

	loc := s.geo.Resolve(ctx, meta.IP)
	client := tracking.ClassifyUserAgent(meta.UserAgent)
	ref := tracking.ParseReferrer(in.Referrer, meta.Referer)

	visit := &model.Visit{
		Page:           in.Page,
		Path:           in.Path,
		SessionID:      sessionID,
		IsUnique:       unique,
		Device:         client.Device,
		Browser:        client.Browser,
		OS:             client.OS,
		UserAgent:      tracking.TruncateUserAgent(meta.UserAgent),
		Referrer:       ref.URL,
		ReferrerDomain: ref.Domain,
		Country:        loc.Country,
		CountryCode:    loc.CountryCode,
		City:           loc.City,
		Region:         loc.Region,
		Timestamp:      now,
	}
	if err := s.store.CreateVisit(ctx, visit); err != nil {
		// A retried beacon must still be able to claim the day.
		if unique {
			if rerr := s.store.ReleaseDailySession(context.WithoutCancel(ctx), sessionID, now); rerr != nil {
				s.logger.Error("release daily session failed", "session_id", sessionID, "error", rerr)
			}
		}
		return nil, fmt.Errorf("create visit: %w", err)
	}

	if unique {
		s.metrics.IncVisitTracked("unique")
	} else {
		s.metrics.IncVisitTracked("repeat")
	}
	return &TrackVisitResult{SessionID: sessionID, IsUnique: unique}, nil
}

// TrackEvent records a custom event. Metadata is stored as given.
func (s *TrackingService) TrackEvent(ctx context.Context, in TrackEventInput, meta RequestMeta) (*TrackEventResult, error) {
	if meta.DoNotTrack {
		s.metrics.IncEventTracked("skipped")
		return &TrackEventResult{Skipped: true}, nil
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	loc := s.geo.Resolve(ctx, meta.IP)

	event := &model.Event{
		EventName:   in.EventName,
		Page:        in.Page,
		Path:        in.Path,
		Metadata:    in.Metadata,
		SessionID:   s.sessionID(in.SessionID, meta, now),
		Country:     loc.Country,
		CountryCode: loc.CountryCode,
		Timestamp:   now,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.metrics.IncEventTracked("recorded")
	return &TrackEventResult{EventID: event.ID.Hex()}, nil
}

// sessionID trusts a client-supplied id and derives one otherwise.
func (s *TrackingService) sessionID(supplied string, meta RequestMeta, now time.Time) string {
	if supplied != "" {
		return supplied
	}
	return tracking.SessionID(meta.IP, meta.UserAgent, now)
}
