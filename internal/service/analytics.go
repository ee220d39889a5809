package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
)

// AnalyticsStore runs the aggregation queries.
type AnalyticsStore interface {
	CountVisits(ctx context.Context, w repository.Window) (int64, error)
	CountDistinctSessions(ctx context.Context, w repository.Window) (int64, error)
	CountLeads(ctx context.Context, status model.LeadStatus) (int64, error)
	CountEvents(ctx context.Context, w repository.Window) (int64, error)
	Traffic(ctx context.Context, w repository.Window, bucket string) ([]model.TrafficPoint, error)
	TopCountries(ctx context.Context, w repository.Window, limit int) ([]model.CountryBreakdown, error)
	TopPages(ctx context.Context, w repository.Window, limit int) ([]model.PageBreakdown, error)
	TopEvents(ctx context.Context, w repository.Window, limit int) ([]model.EventBreakdown, error)
	RecentVisits(ctx context.Context, limit int) ([]model.RecentVisit, error)
	EachVisit(ctx context.Context, w repository.Window, fn func(*model.Visit) error) error
	EachLead(ctx context.Context, w repository.Window, fn func(*model.Lead) error) error
}

// Traffic periods.
const (
	PeriodDay   = "day"
	PeriodMonth = "month"
)

const (
	defaultTopLimit    = 10
	defaultRecentLimit = 20
	maxAnalyticsLimit  = 100
)

// Export headers.
var (
	VisitCSVHeader = []string{
		"Timestamp", "Page", "Path", "Session ID", "Unique", "Device", "Browser", "OS",
		"Country", "Country Code", "City", "Region", "Referrer", "Referrer Domain",
	}
	LeadCSVHeader = []string{
		"Created At", "Name", "Email", "Message", "Page", "Path", "Status", "Notes",
		"Country", "Country Code", "Contacted At",
	}
)

// AnalyticsService answers the admin dashboard queries.
type AnalyticsService struct {
	store  AnalyticsStore
	logger *slog.Logger
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(store AnalyticsStore, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:  store,
		logger: logger.With("component", "service.analytics"),
	}
}

// Overview returns the headline counters. Lead totals ignore the window.
func (s *AnalyticsService) Overview(ctx context.Context, w repository.Window) (*model.Overview, error) {
	var (
		out model.Overview
		err error
	)
	if out.TotalVisits, err = s.store.CountVisits(ctx, w); err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}
	if out.UniqueVisitors, err = s.store.CountDistinctSessions(ctx, w); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if out.TotalLeads, err = s.store.CountLeads(ctx, ""); err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	if out.NewLeads, err = s.store.CountLeads(ctx, model.LeadStatusNew); err != nil {
		return nil, fmt.Errorf("count new leads: %w", err)
	}
	if out.TotalEvents, err = s.store.CountEvents(ctx, w); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	return &out, nil
}

// Traffic groups visits per day or month, oldest first.
func (s *AnalyticsService) Traffic(ctx context.Context, w repository.Window, period string) ([]model.TrafficPoint, error) {
	var bucket string
	switch period {
	case "", PeriodDay:
		bucket = repository.BucketDay
	case PeriodMonth:
		bucket = repository.BucketMonth
	default:
		return nil, ErrInvalidBucket
	}
	points, err := s.store.Traffic(ctx, w, bucket)
	if err != nil {
		return nil, fmt.Errorf("traffic: %w", err)
	}
	return points, nil
}

// TopCountries returns the busiest countries, Unknown excluded.
func (s *AnalyticsService) TopCountries(ctx context.Context, w repository.Window, limit int) ([]model.CountryBreakdown, error) {
	rows, err := s.store.TopCountries(ctx, w, clampLimit(limit, defaultTopLimit))
	if err != nil {
		return nil, fmt.Errorf("top countries: %w", err)
	}
	return rows, nil
}

// TopPages returns the most visited pages.
func (s *AnalyticsService) TopPages(ctx context.Context, w repository.Window, limit int) ([]model.PageBreakdown, error) {
	rows, err := s.store.TopPages(ctx, w, clampLimit(limit, defaultTopLimit))
	if err != nil {
		return nil, fmt.Errorf("top pages: %w", err)
	}
	return rows, nil
}

// TopEvents returns the most frequent custom events.
func (s *AnalyticsService) TopEvents(ctx context.Context, w repository.Window, limit int) ([]model.EventBreakdown, error) {
	rows, err := s.store.TopEvents(ctx, w, clampLimit(limit, defaultTopLimit))
	if err != nil {
		return nil, fmt.Errorf("top events: %w", err)
	}
	return rows, nil
}

// RecentVisits returns the latest visits.
func (s *AnalyticsService) RecentVisits(ctx context.Context, limit int) ([]model.RecentVisit, error) {
	rows, err := s.store.RecentVisits(ctx, clampLimit(limit, defaultRecentLimit))
	if err != nil {
		return nil, fmt.Errorf("recent visits: %w", err)
	}
	return rows, nil
}

// ExportVisits writes visits in w as CSV to out.
func (s *AnalyticsService) ExportVisits(ctx context.Context, w repository.Window, out io.Writer) error {
	cw := newCSVWriter(out)
	if err := cw.Write(VisitCSVHeader); err != nil {
		return err
	}

	rows := 0
	err := s.store.EachVisit(ctx, w, func(v *model.Visit) error {
		rows++
		domain := ""
		if v.ReferrerDomain != nil {
			domain = *v.ReferrerDomain
		}
		return cw.Write([]string{
			formatTime(v.Timestamp),
			v.Page,
			v.Path,
			v.SessionID,
			strconv.FormatBool(v.IsUnique),
			v.Device,
			v.Browser,
			v.OS,
			v.Country,
			v.CountryCode,
			v.City,
			v.Region,
			v.Referrer,
			domain,
		})
	})
	if err != nil {
		return fmt.Errorf("export visits: %w", err)
	}

	s.logger.Info("visits exported", "rows", rows)
	return cw.Flush()
}

// ExportLeads writes leads created in w as CSV to out.
func (s *AnalyticsService) ExportLeads(ctx context.Context, w repository.Window, out io.Writer) error {
	cw := newCSVWriter(out)
	if err := cw.Write(LeadCSVHeader); err != nil {
		return err
	}

	rows := 0
	err := s.store.EachLead(ctx, w, func(l *model.Lead) error {
		rows++
		contacted := ""
		if l.ContactedAt != nil {
			contacted = formatTime(*l.ContactedAt)
		}
		return cw.Write([]string{
			formatTime(l.CreatedAt),
			l.Name,
			l.Email,
			l.Message,
			l.Page,
			l.Path,
			string(l.Status),
			l.Notes,
			l.Country,
			l.CountryCode,
			contacted,
		})
	})
	if err != nil {
		return fmt.Errorf("export leads: %w", err)
	}

	s.logger.Info("leads exported", "rows", rows)
	return cw.Flush()
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxAnalyticsLimit {
		return maxAnalyticsLimit
	}
	return limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
