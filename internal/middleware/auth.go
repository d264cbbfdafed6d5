package middleware

import (
	"context"
	"net/http"

	"github.com/devfolio/backend/internal/auth"
	"github.com/devfolio/backend/internal/httpx"
	"github.com/devfolio/backend/internal/models"
)

// UserLoader resolves a user id from the token to a live user record.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the session cookie and attaches the resolved user
// to the request context. Every failure mode (missing signature, expiry,
// malformed token, deleted account) collapses to the same 401 so the
// response never acts as an oracle.
func RequireAuth(tokens *auth.TokenManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			userID, err := tokens.Verify(cookie.Value)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			user.PasswordHash = ""

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}
