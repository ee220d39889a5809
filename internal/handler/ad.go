package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio/folio/internal/service"
)

// AdHandler serves promotional ads and their counters.
type AdHandler struct {
	*Handler
	svc *service.AdService
}

// NewAdHandler creates an AdHandler.
func NewAdHandler(base *Handler, svc *service.AdService) *AdHandler {
	return &AdHandler{Handler: base, svc: svc}
}

// Active handles GET /api/ads/active.
func (h *AdHandler) Active(w http.ResponseWriter, r *http.Request) {
	ads, err := h.svc.Active(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", ads)
}

// List handles GET /api/ads.
func (h *AdHandler) List(w http.ResponseWriter, r *http.Request) {
	ads, total, page, err := h.svc.List(r.Context(), trimmed(r, "status"), queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, ads, total, page.Page, page.Limit)
}

// Get handles GET /api/ads/{id}.
func (h *AdHandler) Get(w http.ResponseWriter, r *http.Request) {
	ad, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", ad)
}

// Create handles POST /api/ads.
func (h *AdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateAdInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	ad, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Ad created", ad)
}

// Update handles PUT /api/ads/{id}.
func (h *AdHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateAdInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	ad, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Ad updated", ad)
}

// Delete handles DELETE /api/ads/{id}.
func (h *AdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Ad deleted"})
}

// Click handles POST /api/ads/{id}/click.
func (h *AdHandler) Click(w http.ResponseWriter, r *http.Request) {
	ad, err := h.svc.RecordClick(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Click recorded", ad)
}

// Impression handles POST /api/ads/{id}/impression.
func (h *AdHandler) Impression(w http.ResponseWriter, r *http.Request) {
	ad, err := h.svc.RecordImpression(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Impression recorded", ad)
}
