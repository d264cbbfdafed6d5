package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devfolio/backend/internal/auth"
	"github.com/devfolio/backend/internal/models"
	"github.com/devfolio/backend/internal/store"
)

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := &models.User{ID: primitive.NewObjectID(), Name: "Owner", Role: models.RoleUser}
	other := &models.User{ID: primitive.NewObjectID(), Name: "Other", Role: models.RoleUser}
	admin := &models.User{ID: primitive.NewObjectID(), Name: "Admin", Role: models.RoleAdmin}

	project := &models.Project{
		ID:     primitive.NewObjectID(),
		Title:  "Portfolio",
		Author: owner.ID,
	}
	load := func(ctx context.Context, id string) (*models.Project, error) {
		if id == project.ID.Hex() {
			return project, nil
		}
		return nil, store.ErrNotFound
	}

	var got *models.Project
	r := chi.NewRouter()
	r.With(RequireOwnerOrAdmin(load, "id")).Delete("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, _ = EntityFromContext[*models.Project](r.Context())
		w.WriteHeader(http.StatusOK)
	})

	request := func(user *models.User, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/projects/"+id, nil)
		if user != nil {
			req = req.WithContext(auth.WithUser(req.Context(), user))
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("no identity", func(t *testing.T) {
		if w := request(nil, project.ID.Hex()); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("owner allowed", func(t *testing.T) {
		got = nil
		if w := request(owner, project.ID.Hex()); w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if got == nil || got.ID != project.ID {
			t.Error("entity not attached to context")
		}
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		if w := request(other, project.ID.Hex()); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("admin allowed", func(t *testing.T) {
		if w := request(admin, project.ID.Hex()); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("unknown id not found", func(t *testing.T) {
		if w := request(owner, primitive.NewObjectID().Hex()); w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestRequireOwnerOrAdminParamNames(t *testing.T) {
	owner := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	comment := &models.Comment{
		ID:      primitive.NewObjectID(),
		Content: "nice work",
		Author:  owner.ID,
		Project: primitive.NewObjectID(),
	}
	load := func(ctx context.Context, id string) (*models.Comment, error) {
		if id == comment.ID.Hex() {
			return comment, nil
		}
		return nil, store.ErrNotFound
	}

	r := chi.NewRouter()
	r.With(RequireOwnerOrAdmin(load, "commentId")).
		Delete("/projects/{id}/comments/{commentId}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

	path := "/projects/" + comment.Project.Hex() + "/comments/" + comment.ID.Hex()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	req = req.WithContext(auth.WithUser(req.Context(), owner))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: middleware must pick the commentId param, not id", w.Code)
	}
}
