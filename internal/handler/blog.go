package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folio/folio/internal/service"
	"github.com/folio/folio/internal/validation"
)

// BlogHandler serves posts and their comments. Routes under /api/blog
// share one path parameter, {key}, which is a slug on public reads and an
// id on admin writes.
type BlogHandler struct {
	*Handler
	posts    *service.BlogService
	comments *service.CommentService
}

// NewBlogHandler creates a BlogHandler.
func NewBlogHandler(base *Handler, posts *service.BlogService, comments *service.CommentService) *BlogHandler {
	return &BlogHandler{Handler: base, posts: posts, comments: comments}
}

func listPostsInput(r *http.Request) service.ListPostsInput {
	return service.ListPostsInput{
		Status:   trimmed(r, "status"),
		Category: trimmed(r, "category"),
		Tag:      trimmed(r, "tag"),
		Search:   trimmed(r, "search"),
		Featured: queryBool(r, "featured"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 10),
	}
}

// List handles GET /api/blog.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, total, page, err := h.posts.ListPublished(r.Context(), listPostsInput(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, posts, total, page.Page, page.Limit)
}

// ListAll handles GET /api/blog/admin/all.
func (h *BlogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	posts, total, page, err := h.posts.ListAll(r.Context(), listPostsInput(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, posts, total, page.Page, page.Limit)
}

// Categories handles GET /api/blog/categories.
func (h *BlogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.posts.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", cats)
}

// View handles GET /api/blog/{key} and counts the view.
func (h *BlogHandler) View(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.ViewBySlug(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", post)
}

// GetByID handles GET /api/blog/id/{id}.
func (h *BlogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", post)
}

// Create handles POST /api/blog.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.PostInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	post, err := h.posts.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Post created", post)
}

// Update handles PUT /api/blog/{key}.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdatePostInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	post, err := h.posts.Update(r.Context(), chi.URLParam(r, "key"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Post updated", post)
}

// Delete handles DELETE /api/blog/{key}.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Post deleted"})
}

// Comments handles GET /api/blog/{key}/comments.
func (h *BlogHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, total, page, err := h.comments.ListForPost(r.Context(), chi.URLParam(r, "key"), queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, comments, total, page.Page, page.Limit)
}

// AddComment handles POST /api/blog/{key}/comments. A tripped honeypot
// gets the same answer as a real comment.
func (h *BlogHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var in service.CreateCommentInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.comments.Create(r.Context(), chi.URLParam(r, "key"), in, requestMeta(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if c == nil {
		writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Comment submitted"})
		return
	}
	msg := "Comment submitted"
	if !c.Approved {
		msg = "Comment submitted and awaiting approval"
	}
	writeData(w, http.StatusCreated, msg, c)
}

// AllComments handles GET /api/blog/comments.
func (h *BlogHandler) AllComments(w http.ResponseWriter, r *http.Request) {
	comments, total, page, err := h.comments.ListAll(r.Context(), trimmed(r, "postId"), queryBool(r, "approved"), queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, comments, total, page.Page, page.Limit)
}

type moderateCommentRequest struct {
	Approved *bool `json:"approved"`
}

// ModerateComment handles PUT /api/blog/comments/{id}.
func (h *BlogHandler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	var req moderateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Approved == nil {
		h.writeError(w, r, validation.NewError("approved", "required", "approved is required"))
		return
	}
	c, err := h.comments.SetApproved(r.Context(), chi.URLParam(r, "id"), *req.Approved)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Comment updated", c)
}

// DeleteComment handles DELETE /api/blog/comments/{id}.
func (h *BlogHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.comments.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Comment deleted"})
}
