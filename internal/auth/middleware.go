package auth

import (
	"context"
	"net/http"

	"github.com/findteam/find-backend/internal/model"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the principal value.
type contextKey string

const principalKey contextKey = "principal"

// PrincipalLoader rebuilds a principal from an actor ID. Implemented by the
// principal service; declared here so the middleware doesn't import it.
type PrincipalLoader interface {
	Load(ctx context.Context, actorID string) (*model.Principal, error)
}

// SessionCookie is the name of the HttpOnly cookie carrying the session JWT.
const SessionCookie = "token"

// RequireAuth enforces authentication on protected routes.
//
// It reads the session JWT from the cookie, validates it, and rebuilds the
// full principal through the loader — a database read on every request, by
// design: the cookie holds nothing but the actor ID, so the principal always
// reflects current database state.
//
// A valid token whose actor no longer exists is a stale session, not an
// anonymous request: the response is 401 so the client re-authenticates.
func RequireAuth(tokens *TokenService, principals PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				unauthorized(w)
				return
			}

			actorID, err := tokens.Validate(cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			principal, err := principals.Load(r.Context(), actorID)
			if err != nil || principal == nil {
				// Actor was deleted, or the store failed — either way this
				// session cannot be trusted.
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireKind guards routes that only one actor kind may use, e.g. the org
// onboarding endpoint. Must be mounted inside RequireAuth.
func RequireKind(kind model.ActorKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if p.Kind() != kind {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"forbidden","message":"this endpoint is not available for your account type"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext retrieves the authenticated principal set by
// RequireAuth. Returns (nil, false) on routes without the middleware.
func PrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*model.Principal)
	return p, ok && p != nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
