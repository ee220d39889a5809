// Package handler provides HTTP request handlers.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/folio/folio/internal/middleware"
	"github.com/folio/folio/internal/service"
	"github.com/folio/folio/internal/upload"
	"github.com/folio/folio/internal/validation"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Data    any                     `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
	// Detail carries the underlying error in development mode only.
	Detail string `json:"detail,omitempty"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

type listData struct {
	Items      any        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func newPagination(total int64, page, limit int) Pagination {
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

// errBadRequest marks malformed request input that is not a field rule.
var errBadRequest = errors.New("bad request")

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }
func (e *badRequestError) Is(target error) bool {
	return target == errBadRequest
}

func badRequest(msg string) error { return &badRequestError{msg: msg} }

// Handler holds what every endpoint needs to answer errors consistently.
type Handler struct {
	logger *slog.Logger
	dev    bool
}

// New creates a new Handler. In development mode 500 responses include
// the underlying error.
func New(logger *slog.Logger, development bool) *Handler {
	return &Handler{logger: logger, dev: development}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, Response{Success: false, Message: "Route not found"})
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, Response{Success: false, Message: "Method not allowed"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func writeList(w http.ResponseWriter, items any, total int64, page, limit int) {
	writeData(w, http.StatusOK, "", listData{Items: items, Pagination: newPagination(total, page, limit)})
}

// writeError maps err onto a status code and writes the error envelope.
// Unexpected errors are logged with request context and hidden from the
// client outside development mode.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)

	resp := Response{Success: false, Message: message}

	var verr *validation.Error
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		if h.dev {
			resp.Detail = err.Error()
		}
	}

	writeJSON(w, status, resp)
}

func statusFor(err error) (int, string) {
	var (
		verr    *validation.Error
		maxErr  *http.MaxBytesError
		badJSON *badRequestError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "Validation failed"
	case errors.As(err, &maxErr), errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "Request body too large"
	case errors.As(err, &badJSON):
		return http.StatusBadRequest, badJSON.msg

	case errors.Is(err, service.ErrLeadNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrAdNotFound),
		errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, upload.ErrNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, service.ErrLeadExists),
		errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidBucket),
		errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, upload.ErrEmptyFile),
		errors.Is(err, upload.ErrInvalidName):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	}

	return http.StatusInternalServerError, "Internal server error"
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return badRequest("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return badRequest("Invalid JSON body")
	}
	return nil
}
