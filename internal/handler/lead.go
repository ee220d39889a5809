package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/service"
	"github.com/folio/folio/internal/tracking"
)

// LeadHandler serves the contact form and lead review.
type LeadHandler struct {
	*Handler
	svc *service.LeadService
}

// NewLeadHandler creates a LeadHandler.
func NewLeadHandler(base *Handler, svc *service.LeadService) *LeadHandler {
	return &LeadHandler{Handler: base, svc: svc}
}

// Create handles POST /api/leads/create.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateLeadInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	lead, err := h.svc.Create(r.Context(), in, tracking.ClientIP(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Thank you! Your message has been received.", lead)
}

// List handles GET /api/leads.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	leads, total, page, err := h.svc.List(r.Context(), service.ListLeadsInput{
		Status: trimmed(r, "status"),
		Search: trimmed(r, "search"),
		Start:  window.Start,
		End:    window.End,
		SortBy: trimmed(r, "sortBy"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, leads, total, page.Page, page.Limit)
}

// Get handles GET /api/leads/{id}.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", lead)
}

// Update handles PUT /api/leads/{id}.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateLeadInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	lead, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in, auth.AdminIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Lead updated", lead)
}

// Delete handles DELETE /api/leads/{id}.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Lead deleted"})
}
