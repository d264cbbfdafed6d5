package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devfolio/backend/internal/httpx"
	"github.com/devfolio/backend/internal/middleware"
	"github.com/devfolio/backend/internal/models"
	"github.com/devfolio/backend/internal/store"
)

// Store defines the persistence needed by the user handlers.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Handler holds user profile HTTP handlers.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Get returns a public profile. The password hash never serializes.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("get user %s: %v", id, err)
		httpx.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	httpx.JSON(w, http.StatusOK, user)
}

func validSocialURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Update applies a partial profile update to the user loaded by the
// ownership middleware (owner or admin).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	target, ok := middleware.EntityFromContext[*models.User](r.Context())
	if !ok {
		httpx.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	var req models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			httpx.Error(w, http.StatusBadRequest, "Name must be at least 2 characters.")
			return
		}
		req.Name = &name
	}
	if req.Bio != nil && len(*req.Bio) > 300 {
		httpx.Error(w, http.StatusBadRequest, "Bio must be at most 300 characters.")
		return
	}
	if req.Socials != nil {
		for _, link := range []string{req.Socials.GitHub, req.Socials.LinkedIn} {
			if link != "" && !validSocialURL(link) {
				httpx.Error(w, http.StatusBadRequest, fmt.Sprintf("Invalid URL: %s", link))
				return
			}
		}
	}

	updated, err := h.store.UpdateUser(r.Context(), target.ID.Hex(), req)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("update user %s: %v", target.ID.Hex(), err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while updating profile.")
		return
	}

	httpx.JSON(w, http.StatusOK, updated)
}

// Delete removes the profile loaded by the ownership middleware. Projects
// and comments of the deleted user are left in place.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	target, ok := middleware.EntityFromContext[*models.User](r.Context())
	if !ok {
		httpx.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := h.store.DeleteUser(r.Context(), target.ID.Hex()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("delete user %s: %v", target.ID.Hex(), err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while deleting profile.")
		return
	}

	httpx.Message(w, "Profile deleted")
}
