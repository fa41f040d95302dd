package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog-backend/internal/auth"
	"github.com/sakif/blog-backend/internal/model"
)

// Fixed 404 messages. A post owned by someone else gets the same answer as a
// missing one.
const (
	msgPostNotFound       = "Post not found"
	msgPostNotFoundUpdate = "Post not found or you are not authorized to update it"
	msgPostNotFoundDelete = "Post not found or you are not authorized to delete it"
	msgPostDeleted        = "Post deleted successfully"
)

// PostService is the subset of service.PostService the handlers call.
type PostService interface {
	Create(ctx context.Context, input model.PostInput, authorID string) (*model.Post, error)
	FindAll(ctx context.Context) ([]model.Post, error)
	FindOne(ctx context.Context, id string) (*model.Post, bool, error)
	FindByAuthor(ctx context.Context, authorID string) ([]model.Post, error)
	Update(ctx context.Context, id string, patch model.PostPatch, authorID string) (*model.Post, bool, error)
	Remove(ctx context.Context, id, authorID string) (bool, error)
}

// PostHandler serves the /posts routes.
type PostHandler struct {
	svc    PostService
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(svc PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{svc: svc, logger: logger}
}

// HandleCreate creates a post owned by the caller.
//
// HTTP: POST /posts
// Auth: Required
// REQUEST BODY: {"title", "authorName", "excerpt", "content", "tags"?}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	input, err := validatePostInput(req)
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.svc.Create(r.Context(), input, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleList returns every post.
//
// HTTP: GET /posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.FindAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleMyPosts returns the caller's posts.
//
// HTTP: GET /posts/my-posts
// Auth: Required
func (h *PostHandler) HandleMyPosts(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	posts, err := h.svc.FindByAuthor(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns one post.
//
// HTTP: GET /posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, ok, err := h.svc.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeNotFound(w, msgPostNotFound)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleUpdate applies a partial update to one of the caller's posts.
//
// HTTP: PATCH /posts/{id}
// Auth: Required
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req updatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch, err := validatePostPatch(req)
	if err != nil {
		writeError(w, err)
		return
	}

	post, ok, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		h.logger.Debug("post update matched no owned post",
			slog.String("id", chi.URLParam(r, "id")),
			slog.String("userID", id.UserID),
		)
		writeNotFound(w, msgPostNotFoundUpdate)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes one of the caller's posts.
//
// HTTP: DELETE /posts/{id}
// Auth: Required
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	removed, err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		h.logger.Debug("post delete matched no owned post",
			slog.String("id", chi.URLParam(r, "id")),
			slog.String("userID", id.UserID),
		)
		writeNotFound(w, msgPostNotFoundDelete)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msgPostDeleted})
}
