package users

import (
	"context"
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
	users map[primitive.ObjectID]*models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	u, ok := f.users[oid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	u, err := f.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Socials != nil {
		u.Socials = upd.Socials
	}
	return u, nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	if _, ok := f.users[oid]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, oid)
	return nil
}

func newRouter(fake *fakeStore) chi.Router {
	h := NewHandler(fake)
	own := middleware.RequireOwnerOrAdmin(fake.GetUserByID, "id")
	r := chi.NewRouter()
	r.Get("/api/users/{id}", h.Get)
	r.With(own).Put("/api/users/{id}", h.Update)
	r.With(own).Delete("/api/users/{id}", h.Delete)
	return r
}

func TestGetUser(t *testing.T) {
	fake := newFakeStore()
	alice := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         "Alice",
		Email:        "a@b.com",
		PasswordHash: "$argon2id$opaque-hash-material",
		Role:         models.RoleUser,
	}
	fake.users[alice.ID] = alice
	r := newRouter(fake)

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/not-hex", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/"+primitive.NewObjectID().Hex(), nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("profile without hash", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/"+alice.ID.Hex(), nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "Alice") {
			t.Errorf("profile missing name: %s", body)
		}
		if strings.Contains(body, "opaque-hash-material") || strings.Contains(body, "passwordHash") {
			t.Error("response leaks the password hash")
		}
	})
}

func TestUpdateUser(t *testing.T) {
	fake := newFakeStore()
	alice := &models.User{ID: primitive.NewObjectID(), Name: "Alice", Role: models.RoleUser}
	fake.users[alice.ID] = alice
	r := newRouter(fake)

	put := func(user *models.User, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/users/"+alice.ID.Hex(), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(auth.WithUser(req.Context(), user))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("short name", func(t *testing.T) {
		if w := put(alice, `{"name":" A "}`); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("oversized bio", func(t *testing.T) {
		long := strings.Repeat("x", 301)
		w := put(alice, `{"bio":"`+long+`"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Bio must be at most 300 characters.") {
			t.Errorf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("bad social link", func(t *testing.T) {
		w := put(alice, `{"socials":{"github":"not-a-url"}}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("applies update", func(t *testing.T) {
		w := put(alice, `{"name":"Alicia","socials":{"github":"https://github.com/alicia"}}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if alice.Name != "Alicia" {
			t.Errorf("name = %q", alice.Name)
		}
		if alice.Socials == nil || alice.Socials.GitHub != "https://github.com/alicia" {
			t.Error("socials not applied")
		}
	})

	t.Run("other user forbidden", func(t *testing.T) {
		mallory := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
		if w := put(mallory, `{"name":"Hacked"}`); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("admin allowed", func(t *testing.T) {
		root := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
		if w := put(root, `{"name":"Moderated"}`); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestDeleteUser(t *testing.T) {
	fake := newFakeStore()
	alice := &models.User{ID: primitive.NewObjectID(), Name: "Alice", Role: models.RoleUser}
	fake.users[alice.ID] = alice
	r := newRouter(fake)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+alice.ID.Hex(), nil)
	req = req.WithContext(auth.WithUser(req.Context(), alice))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(fake.users) != 0 {
		t.Error("user not deleted")
	}
}
