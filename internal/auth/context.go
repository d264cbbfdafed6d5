package auth

import (
	"context"

	"github.com/devfolio/backend/internal/models"
)

type ctxKey int

const userKey ctxKey = iota

// WithUser returns a context carrying the resolved identity. The session
// middleware is the only writer.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the identity resolved by the session middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}
