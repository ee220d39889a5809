package handler

import (
	"net/http"

	"github.com/folio/folio/internal/service"
)

// TrackingHandler receives visit and event beacons.
type TrackingHandler struct {
	*Handler
	svc *service.TrackingService
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(base *Handler, svc *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{Handler: base, svc: svc}
}

// Visit handles POST /api/track/visit.
func (h *TrackingHandler) Visit(w http.ResponseWriter, r *http.Request) {
	meta := requestMeta(r)
	var in service.TrackVisitInput
	// Opted-out clients are acknowledged whatever they sent.
	if !meta.DoNotTrack {
		if err := decodeJSON(r, &in); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	res, err := h.svc.TrackVisit(r.Context(), in, meta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.Skipped {
		writeData(w, http.StatusOK, "Tracking skipped (Do Not Track)", res)
		return
	}
	writeData(w, http.StatusCreated, "Visit tracked", res)
}

// Event handles POST /api/track/event.
func (h *TrackingHandler) Event(w http.ResponseWriter, r *http.Request) {
	meta := requestMeta(r)
	var in service.TrackEventInput
	// Opted-out clients are acknowledged whatever they sent.
	if !meta.DoNotTrack {
		if err := decodeJSON(r, &in); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	res, err := h.svc.TrackEvent(r.Context(), in, meta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.Skipped {
		writeData(w, http.StatusOK, "Tracking skipped (Do Not Track)", res)
		return
	}
	writeData(w, http.StatusCreated, "Event tracked", res)
}
