package search

import (
	"context"
	"log"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devfolio/backend/internal/httpx"
	"github.com/devfolio/backend/internal/models"
	"github.com/devfolio/backend/internal/store"
)

const (
	defaultPageSize = 2
	maxUserMatches  = 20
)

// Store defines the persistence needed by the search handler.
type Store interface {
	SearchUsers(ctx context.Context, q string, limit int) ([]models.User, error)
	ListProjects(ctx context.Context, f store.ProjectFilter, page, limit int) ([]models.Project, int64, error)
	GetUserSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error)
}

// Handler holds the combined user/project search handler.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Search matches users by name and projects by title, description or a
// matched author, all case-insensitive substring.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	page := httpx.Page(r)
	limit := httpx.Limit(r, defaultPageSize)

	matched, err := h.store.SearchUsers(r.Context(), q, maxUserMatches)
	if err != nil {
		log.Printf("search users %q: %v", q, err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while searching.")
		return
	}

	users := make([]models.UserSummary, 0, len(matched))
	authorIDs := make([]primitive.ObjectID, 0, len(matched))
	for _, u := range matched {
		users = append(users, models.UserSummary{ID: u.ID, Name: u.Name, Socials: u.Socials})
		authorIDs = append(authorIDs, u.ID)
	}

	filter := store.ProjectFilter{Search: q, AuthorIn: authorIDs}
	items, count, err := h.store.ListProjects(r.Context(), filter, page, limit)
	if err != nil {
		log.Printf("search projects %q: %v", q, err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while searching.")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	seen := make(map[primitive.ObjectID]bool, len(items))
	for _, p := range items {
		if !seen[p.Author] {
			seen[p.Author] = true
			ids = append(ids, p.Author)
		}
	}
	summaries, err := h.store.GetUserSummaries(r.Context(), ids)
	if err != nil {
		log.Printf("search authors %q: %v", q, err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while searching.")
		return
	}

	projects := make([]models.ProjectView, 0, len(items))
	for _, p := range items {
		view := models.ProjectView{Project: p}
		if s, ok := summaries[p.Author]; ok {
			view.Author = &models.UserSummary{ID: s.ID, Name: s.Name}
		}
		projects = append(projects, view)
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"projects":   projects,
		"totalPages": httpx.TotalPages(count, limit),
	})
}
