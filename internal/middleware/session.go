// Package middleware provides HTTP middlewares for session
// authentication and request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/healthdesk/medvault/internal/models"
)

type ctxKey string

const actorKey ctxKey = "actor"

// SessionResolver resolves a bearer token to the acting user.
type SessionResolver interface {
	Resolve(token string) (models.Actor, bool)
}

// SessionAuth rejects requests that do not carry a valid session
// token. The resolved actor, including the role captured at login, is
// stored in the request context for the handlers.
func SessionAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" {
				http.Error(w, "missing session token", http.StatusUnauthorized)
				return
			}
			actor, ok := sessions.Resolve(token)
			if !ok {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}
			ctx := WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithActor returns a context carrying the given actor. Handlers read
// it back with ActorFromContext.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the acting user from the request context.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}
