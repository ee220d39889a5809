package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio/folio/internal/service"
)

// ProjectHandler serves portfolio projects.
type ProjectHandler struct {
	*Handler
	svc *service.ProjectService
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(base *Handler, svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{Handler: base, svc: svc}
}

// List handles GET /api/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.List(r.Context(), queryBool(r, "featured"), trimmed(r, "category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", projects)
}

// Get handles GET /api/projects/{id}; id may also be a slug.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", p)
}

// Create handles POST /api/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Project created", p)
}

// Update handles PUT /api/projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Project updated", p)
}

// Delete handles DELETE /api/projects/{id}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Project deleted"})
}

// ServiceHandler serves the service offerings.
type ServiceHandler struct {
	*Handler
	svc *service.ServiceCatalog
}

// NewServiceHandler creates a ServiceHandler.
func NewServiceHandler(base *Handler, svc *service.ServiceCatalog) *ServiceHandler {
	return &ServiceHandler{Handler: base, svc: svc}
}

// List handles GET /api/services. Inactive offerings are hidden.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.List(r.Context(), queryBool(r, "featured"), true)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", services)
}

// ListAll handles GET /api/services/admin/all.
func (h *ServiceHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.List(r.Context(), queryBool(r, "featured"), false)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", services)
}

// Get handles GET /api/services/{id}; id may also be a slug.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", s)
}

// Create handles POST /api/services.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ServiceInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Service created", s)
}

// Update handles PUT /api/services/{id}.
func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.ServiceInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Service updated", s)
}

// Delete handles DELETE /api/services/{id}.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Service deleted"})
}
