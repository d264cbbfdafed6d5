package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devfolio/backend/internal/auth"
	"github.com/devfolio/backend/internal/models"
	"github.com/devfolio/backend/internal/store"
)

type fakeUserLoader struct {
	users map[string]*models.User
}

func (f *fakeUserLoader) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	alice := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         "Alice",
		Email:        "a@b.com",
		PasswordHash: "some-hash",
		Role:         models.RoleUser,
	}
	loader := &fakeUserLoader{users: map[string]*models.User{alice.ID.Hex(): alice}}

	var got *models.User
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(tokens, loader)(probe)

	request := func(cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: cookie})
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("missing cookie", func(t *testing.T) {
		if w := request(""); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		if w := request("garbage.token.here"); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewTokenManager("test-secret", -time.Minute)
		tok, err := expired.Issue(alice.ID.Hex())
		if err != nil {
			t.Fatal(err)
		}
		if w := request(tok); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("deleted account", func(t *testing.T) {
		tok, err := tokens.Issue(primitive.NewObjectID().Hex())
		if err != nil {
			t.Fatal(err)
		}
		if w := request(tok); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid session", func(t *testing.T) {
		tok, err := tokens.Issue(alice.ID.Hex())
		if err != nil {
			t.Fatal(err)
		}
		got = nil
		if w := request(tok); w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if got == nil {
			t.Fatal("no user attached to context")
		}
		if got.ID != alice.ID {
			t.Errorf("resolved user %s, want %s", got.ID.Hex(), alice.ID.Hex())
		}
		if got.PasswordHash != "" {
			t.Error("password hash leaked into request context")
		}
	})
}
