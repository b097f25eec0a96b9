package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/dealfinder/internal/apperr"
	"github.com/dukerupert/dealfinder/internal/auth"
	"github.com/dukerupert/dealfinder/internal/model"
)

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.PublicUser, error)
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// RequireAuth rejects requests without a valid session with a JSON 401 and
// populates AuthContext for the rest.
func RequireAuth(sessions SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			user, err := sessions.ResolveSession(r.Context(), token)
			if err != nil {
				if apperr.KindOf(err) == apperr.KindInternal {
					logger.Error("resolve session", "path", r.URL.Path, "error", err)
				}
				writeError(w, err)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{User: *user, SessionToken: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user when the session is valid and otherwise
// lets the request through anonymously.
func OptionalAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token != "" {
				if user, err := sessions.ResolveSession(r.Context(), token); err == nil {
					r = r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{User: *user, SessionToken: token}))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
