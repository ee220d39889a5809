package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio/folio/internal/upload"
)

// multipartMemory is how much of a multipart form is kept in memory
// before spilling to temp files.
const multipartMemory = 1 << 20

// UploadHandler accepts image uploads for posts, projects and ads.
type UploadHandler struct {
	*Handler
	store *upload.Store
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(base *Handler, store *upload.Store) *UploadHandler {
	return &UploadHandler{Handler: base, store: store}
}

// Upload handles POST /api/upload with the image in the "file" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.store.MaxBytes()+multipartMemory)

	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, err)
			return
		}
		h.writeError(w, r, badRequest("A file is required in the \"file\" field"))
		return
	}
	defer file.Close()

	saved, err := h.store.Save(file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "File uploaded", saved)
}

// Delete handles DELETE /api/upload/{name}.
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "name")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "File deleted"})
}
