package comments

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devfolio/backend/internal/auth"
	"github.com/devfolio/backend/internal/httpx"
	"github.com/devfolio/backend/internal/middleware"
	"github.com/devfolio/backend/internal/models"
	"github.com/devfolio/backend/internal/store"
)

// Store defines the persistence needed by the comment handlers.
type Store interface {
	InsertComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id string) error
}

// Handler holds comment HTTP handlers.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type createRequest struct {
	Content string `json:"content"`
}

// Create posts a comment on a project. The project's existence is not
// verified; a concurrent project delete can orphan the comment, which the
// read path simply never returns.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	raw := chi.URLParam(r, "projectId")
	if raw == "" {
		raw = chi.URLParam(r, "id")
	}
	projectID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid project id.")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		httpx.Error(w, http.StatusBadRequest, "Content is required.")
		return
	}

	comment := &models.Comment{
		Content: content,
		Author:  user.ID,
		Project: projectID,
	}
	if err := h.store.InsertComment(r.Context(), comment); err != nil {
		log.Printf("create comment: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while creating comment.")
		return
	}

	httpx.JSON(w, http.StatusCreated, comment)
}

// Delete removes the comment loaded by the ownership middleware.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	comment, ok := middleware.EntityFromContext[*models.Comment](r.Context())
	if !ok {
		httpx.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := h.store.DeleteComment(r.Context(), comment.ID.Hex()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Not found")
			return
		}
		log.Printf("delete comment %s: %v", comment.ID.Hex(), err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while deleting comment.")
		return
	}

	httpx.Message(w, "Comment deleted")
}
