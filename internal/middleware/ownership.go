package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devfolio/backend/internal/auth"
	"github.com/devfolio/backend/internal/httpx"
	"github.com/devfolio/backend/internal/models"
	"github.com/devfolio/backend/internal/store"
)

// Owned is any entity with an author reference. Users own themselves.
type Owned interface {
	OwnerID() string
}

type entityCtxKey int

const entityKey entityCtxKey = iota

// RequireOwnerOrAdmin loads the entity named by the first non-empty route
// param and allows the request only when the resolved identity is its
// owner or an admin. The loaded entity is attached to the context so the
// handler avoids a second fetch. Must run after RequireAuth.
func RequireOwnerOrAdmin[T Owned](load func(ctx context.Context, id string) (T, error), params ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			var id string
			for _, p := range params {
				if v := chi.URLParam(r, p); v != "" {
					id = v
					break
				}
			}
			if id == "" {
				httpx.Error(w, http.StatusNotFound, "Not found")
				return
			}

			doc, err := load(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				httpx.Error(w, http.StatusNotFound, "Not found")
				return
			}
			if err != nil {
				log.Printf("ownership load %q: %v", id, err)
				httpx.Error(w, http.StatusInternalServerError, "Server error")
				return
			}

			if doc.OwnerID() != user.ID.Hex() && user.Role != models.RoleAdmin {
				httpx.Error(w, http.StatusForbidden, "Forbidden")
				return
			}

			ctx := context.WithValue(r.Context(), entityKey, doc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EntityFromContext returns the entity loaded by RequireOwnerOrAdmin.
func EntityFromContext[T Owned](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(entityKey).(T)
	return v, ok
}
