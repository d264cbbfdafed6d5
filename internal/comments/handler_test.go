package comments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devfolio/backend/internal/auth"
	"github.com/devfolio/backend/internal/middleware"
	"github.com/devfolio/backend/internal/models"
	"github.com/devfolio/backend/internal/store"
)

type fakeStore struct {
	comments map[primitive.ObjectID]*models.Comment
}

func newFakeStore() *fakeStore {
	return &fakeStore{comments: make(map[primitive.ObjectID]*models.Comment)}
}

func (f *fakeStore) InsertComment(ctx context.Context, c *models.Comment) error {
	c.ID = primitive.NewObjectID()
	f.comments[c.ID] = c
	return nil
}

func (f *fakeStore) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	c, ok := f.comments[oid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) DeleteComment(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	if _, ok := f.comments[oid]; !ok {
		return store.ErrNotFound
	}
	delete(f.comments, oid)
	return nil
}

func newRouter(fake *fakeStore) chi.Router {
	h := NewHandler(fake)
	own := middleware.RequireOwnerOrAdmin(fake.GetCommentByID, "commentId")
	r := chi.NewRouter()
	r.Post("/api/projects/{id}/comments", h.Create)
	r.With(own).Delete("/api/projects/{id}/comments/{commentId}", h.Delete)
	return r
}

func TestCreateComment(t *testing.T) {
	alice := &models.User{ID: primitive.NewObjectID(), Name: "Alice", Role: models.RoleUser}
	projectID := primitive.NewObjectID()

	post := func(fake *fakeStore, user *models.User, project, body string) *httptest.ResponseRecorder {
		r := newRouter(fake)
		req := httptest.NewRequest(http.MethodPost, "/api/projects/"+project+"/comments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if user != nil {
			req = req.WithContext(auth.WithUser(req.Context(), user))
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("unauthenticated", func(t *testing.T) {
		if w := post(newFakeStore(), nil, projectID.Hex(), `{"content":"hi"}`); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("invalid project id", func(t *testing.T) {
		if w := post(newFakeStore(), alice, "zzz", `{"content":"hi"}`); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("blank content", func(t *testing.T) {
		fake := newFakeStore()
		w := post(fake, alice, projectID.Hex(), `{"content":"   "}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Content is required.") {
			t.Errorf("unexpected body: %s", w.Body.String())
		}
		if len(fake.comments) != 0 {
			t.Error("blank comment inserted")
		}
	})

	t.Run("created", func(t *testing.T) {
		fake := newFakeStore()
		w := post(fake, alice, projectID.Hex(), `{"content":"  Great work!  "}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}

		var c models.Comment
		if err := json.NewDecoder(w.Body).Decode(&c); err != nil {
			t.Fatal(err)
		}
		if c.Content != "Great work!" {
			t.Errorf("content = %q, want trimmed", c.Content)
		}
		if c.Author != alice.ID || c.Project != projectID {
			t.Error("author or project reference wrong")
		}
	})
}

func TestDeleteComment(t *testing.T) {
	owner := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	fake := newFakeStore()
	comment := &models.Comment{ID: primitive.NewObjectID(), Content: "mine", Author: owner.ID, Project: primitive.NewObjectID()}
	fake.comments[comment.ID] = comment

	r := newRouter(fake)
	path := "/api/projects/" + comment.Project.Hex() + "/comments/" + comment.ID.Hex()

	t.Run("non-owner forbidden", func(t *testing.T) {
		stranger := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req = req.WithContext(auth.WithUser(req.Context(), stranger))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
		if len(fake.comments) != 1 {
			t.Error("comment deleted by non-owner")
		}
	})

	t.Run("owner deletes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req = req.WithContext(auth.WithUser(req.Context(), owner))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if len(fake.comments) != 0 {
			t.Error("comment not deleted")
		}
	})
}
