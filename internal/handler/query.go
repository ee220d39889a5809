package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/service"
	"github.com/folio/folio/internal/tracking"
	"github.com/folio/folio/internal/validation"
)

const dateOnly = "2006-01-02"

// queryInt returns the integer query value or def when missing or malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// queryBool returns nil when key is absent so callers can tell "unset"
// from false.
func queryBool(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

// parseWindow reads startDate and endDate. Both accept RFC 3339 or a plain
// date; a plain endDate covers that whole day.
func parseWindow(r *http.Request) (repository.Window, error) {
	var w repository.Window
	q := r.URL.Query()

	if raw := q.Get("startDate"); raw != "" {
		t, _, err := parseTime(raw)
		if err != nil {
			return w, validation.NewError("startDate", "datetime", "startDate must be a date or RFC 3339 timestamp")
		}
		w.Start = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, wholeDay, err := parseTime(raw)
		if err != nil {
			return w, validation.NewError("endDate", "datetime", "endDate must be a date or RFC 3339 timestamp")
		}
		if wholeDay {
			t = t.AddDate(0, 0, 1)
		}
		w.End = &t
	}
	if w.Start != nil && w.End != nil && w.End.Before(*w.Start) {
		return w, service.ErrInvalidDateRange
	}
	return w, nil
}

func parseTime(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}

// requestMeta collects what the services need to know about the caller.
func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:         tracking.ClientIP(r),
		UserAgent:  r.UserAgent(),
		Referer:    r.Referer(),
		DoNotTrack: tracking.DoNotTrack(r),
	}
}

func trimmed(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
