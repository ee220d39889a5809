package handler

import (
	"net/http"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/service"
)

// AuthHandler handles admin login.
type AuthHandler struct {
	*Handler
	svc *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(base *Handler, svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Handler: base, svc: svc}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Login successful", res)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), auth.AdminIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", user)
}
