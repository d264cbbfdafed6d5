package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devfolio/backend/internal/auth"
	"github.com/devfolio/backend/internal/compensate"
	"github.com/devfolio/backend/internal/httpx"
	"github.com/devfolio/backend/internal/middleware"
	"github.com/devfolio/backend/internal/models"
	"github.com/devfolio/backend/internal/store"
)

const (
	defaultPageSize = 6
	maxUploadBytes  = 10 << 20
)

// Store defines the persistence needed by the project handlers.
type Store interface {
	InsertProject(ctx context.Context, p *models.Project) error
	ListProjects(ctx context.Context, f store.ProjectFilter, page, limit int) ([]models.Project, int64, error)
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, ch store.ProjectChanges) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ListCommentsByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Comment, error)
	DeleteCommentsByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
	GetUserSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error)
}

// FileStore defines the blob storage used for cover images.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	KeyForURL(url string) string
}

// Handler holds project HTTP handlers.
type Handler struct {
	store Store
	files FileStore
}

func NewHandler(store Store, files FileStore) *Handler {
	return &Handler{store: store, files: files}
}

var imageMIMEs = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
	"image/gif":  true,
}

func isImageMIME(ct string) bool {
	if i := strings.Index(ct, ";"); i != -1 {
		ct = ct[:i]
	}
	return imageMIMEs[strings.ToLower(strings.TrimSpace(ct))]
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseLinks normalizes the comma-separated links input. The second return
// is the first invalid value, if any.
func parseLinks(raw string) ([]string, string) {
	var links []string
	for _, part := range strings.Split(raw, ",") {
		l := strings.TrimSpace(part)
		if l == "" {
			continue
		}
		if !validURL(l) {
			return nil, l
		}
		links = append(links, l)
	}
	return links, ""
}

// List returns one page of projects with author names populated.
// The author filter is applied only when it parses as an id; a bogus
// value is silently ignored rather than erroring.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := httpx.Page(r)
	limit := httpx.Limit(r, defaultPageSize)

	var filter store.ProjectFilter
	if author := r.URL.Query().Get("author"); author != "" {
		if oid, err := primitive.ObjectIDFromHex(author); err == nil {
			filter.Author = &oid
		}
	}
	filter.Search = strings.TrimSpace(r.URL.Query().Get("search"))

	items, count, err := h.store.ListProjects(r.Context(), filter, page, limit)
	if err != nil {
		log.Printf("list projects: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while listing projects.")
		return
	}

	views, err := h.populate(r.Context(), items)
	if err != nil {
		log.Printf("list projects populate: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while listing projects.")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"projects":   views,
		"totalPages": httpx.TotalPages(count, limit),
	})
}

func (h *Handler) populate(ctx context.Context, items []models.Project) ([]models.ProjectView, error) {
	ids := make([]primitive.ObjectID, 0, len(items))
	seen := make(map[primitive.ObjectID]bool, len(items))
	for _, p := range items {
		if !seen[p.Author] {
			seen[p.Author] = true
			ids = append(ids, p.Author)
		}
	}
	summaries, err := h.store.GetUserSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.ProjectView, 0, len(items))
	for _, p := range items {
		view := models.ProjectView{Project: p}
		if s, ok := summaries[p.Author]; ok {
			view.Author = &models.UserSummary{ID: s.ID, Name: s.Name}
		}
		views = append(views, view)
	}
	return views, nil
}

// Create validates the multipart form, uploads the optional cover and
// inserts the project. A failed insert after a successful upload triggers
// best-effort blob cleanup.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		httpx.Error(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if len(title) < 3 {
		httpx.Error(w, http.StatusBadRequest, "Title must be at least 3 characters.")
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))
	if len(description) < 10 {
		httpx.Error(w, http.StatusBadRequest, "Description must be at least 10 characters.")
		return
	}

	links, bad := parseLinks(r.FormValue("links"))
	if bad != "" {
		httpx.Error(w, http.StatusBadRequest, fmt.Sprintf("Invalid URL: %s", bad))
		return
	}
	if len(links) == 0 {
		httpx.Error(w, http.StatusBadRequest, "At least one URL required.")
		return
	}

	coverURL, coverKey, ok := h.uploadCover(w, r)
	if !ok {
		return
	}

	project := &models.Project{
		Title:       title,
		Description: description,
		Links:       links,
		CoverURL:    coverURL,
		Author:      user.ID,
	}
	if err := h.store.InsertProject(r.Context(), project); err != nil {
		log.Printf("create project: %v", err)
		if coverKey != "" {
			key := coverKey
			compensate.Run("orphaned cover "+key, func() error {
				return h.files.Remove(context.Background(), key)
			})
		}
		httpx.Error(w, http.StatusInternalServerError, "Server error while creating project.")
		return
	}

	httpx.JSON(w, http.StatusCreated, project)
}

// uploadCover handles the optional cover file. When it returns ok=false
// the response has already been written.
func (h *Handler) uploadCover(w http.ResponseWriter, r *http.Request) (coverURL, key string, ok bool) {
	file, header, err := r.FormFile("cover")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", "", true
	}
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid form data.")
		return "", "", false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !isImageMIME(contentType) {
		httpx.Error(w, http.StatusBadRequest, "Cover must be an image file.")
		return "", "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid form data.")
		return "", "", false
	}

	key = fmt.Sprintf("covers/%d-%s", time.Now().UnixMilli(), filepath.Base(header.Filename))
	coverURL, err = h.files.Upload(r.Context(), key, data, contentType)
	if err != nil {
		log.Printf("cover upload failed: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Failed to upload cover image.")
		return "", "", false
	}
	return coverURL, key, true
}

// Get returns a single project with author and comments populated.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid project id.")
		return
	}

	project, err := h.store.GetProjectByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		log.Printf("get project %s: %v", id, err)
		httpx.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	comments, err := h.store.ListCommentsByProject(r.Context(), project.ID)
	if err != nil {
		log.Printf("get project %s comments: %v", id, err)
		httpx.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	ids := []primitive.ObjectID{project.Author}
	seen := map[primitive.ObjectID]bool{project.Author: true}
	for _, c := range comments {
		if !seen[c.Author] {
			seen[c.Author] = true
			ids = append(ids, c.Author)
		}
	}
	summaries, err := h.store.GetUserSummaries(r.Context(), ids)
	if err != nil {
		log.Printf("get project %s authors: %v", id, err)
		httpx.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	detail := models.ProjectDetail{Project: *project, Comments: make([]models.CommentView, 0, len(comments))}
	if s, ok := summaries[project.Author]; ok {
		detail.Author = &s
	}
	for _, c := range comments {
		view := models.CommentView{Comment: c}
		if s, ok := summaries[c.Author]; ok {
			view.Author = &models.UserSummary{ID: s.ID, Name: s.Name}
		}
		detail.Comments = append(detail.Comments, view)
	}

	httpx.JSON(w, http.StatusOK, detail)
}

// Update applies a partial update to the project loaded by the ownership
// middleware. Provided fields get the same validation as at creation.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	project, ok := middleware.EntityFromContext[*models.Project](r.Context())
	if !ok {
		httpx.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	var req models.ProjectUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	var changes store.ProjectChanges
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len(title) < 3 {
			httpx.Error(w, http.StatusBadRequest, "Title must be at least 3 characters.")
			return
		}
		changes.Title = &title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if len(description) < 10 {
			httpx.Error(w, http.StatusBadRequest, "Description must be at least 10 characters.")
			return
		}
		changes.Description = &description
	}
	if req.Links != nil {
		links, bad := parseLinks(*req.Links)
		if bad != "" {
			httpx.Error(w, http.StatusBadRequest, fmt.Sprintf("Invalid URL: %s", bad))
			return
		}
		if len(links) == 0 {
			httpx.Error(w, http.StatusBadRequest, "At least one URL required.")
			return
		}
		changes.Links = links
	}

	updated, err := h.store.UpdateProject(r.Context(), project.ID.Hex(), changes)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		log.Printf("update project %s: %v", project.ID.Hex(), err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while updating project.")
		return
	}

	httpx.JSON(w, http.StatusOK, updated)
}

// Delete removes the project loaded by the ownership middleware. Order:
// best-effort cover blob cleanup, comment cascade, then the project
// itself. Neither cleanup step may block the delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	project, ok := middleware.EntityFromContext[*models.Project](r.Context())
	if !ok {
		httpx.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	if project.CoverURL != "" {
		if key := h.files.KeyForURL(project.CoverURL); key != "" {
			ctx := r.Context()
			compensate.Run("project cover "+key, func() error {
				return h.files.Remove(ctx, key)
			})
		}
	}

	if _, err := h.store.DeleteCommentsByProject(r.Context(), project.ID); err != nil {
		log.Printf("cascade comments for project %s: %v", project.ID.Hex(), err)
	}

	if err := h.store.DeleteProject(r.Context(), project.ID.Hex()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Not found")
			return
		}
		log.Printf("delete project %s: %v", project.ID.Hex(), err)
		httpx.Error(w, http.StatusInternalServerError, "Server error while deleting project.")
		return
	}

	httpx.Message(w, "Project removed")
}
