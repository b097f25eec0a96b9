package auth

import (
	"context"

	"github.com/dukerupert/dealfinder/internal/model"
)

type contextKey struct{}

// AuthContext is attached to a request once its session cookie resolves to a user.
type AuthContext struct {
	User         model.PublicUser
	SessionToken string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// UserID returns the authenticated user's id, or 0 for anonymous requests.
func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.User.ID
}

// SessionCookieName is the cookie that carries the opaque session token.
const SessionCookieName = "authToken"
