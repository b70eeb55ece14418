package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const sessionKeyCtx contextKey = "session"

// CookieName is the session cookie issued at login.
const CookieName = "clinic_session"

// FromContext returns the authenticated session, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKeyCtx).(*Session)
	return sess, ok
}

// WithSession attaches a session to the context. Exposed for handler tests.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKeyCtx, sess)
}

// TokenFromRequest extracts the session token from the cookie or a bearer
// header. The cookie wins when both are present.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// Require authenticates the request against the store and, when role is
// non-empty, enforces it. Failures are terminal 401/403 responses.
func Require(store *Store, role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r.Context(), TokenFromRequest(r))
			if err != nil {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if role != "" && sess.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireAdmin gates staff-only operations.
func RequireAdmin(store *Store) func(http.Handler) http.Handler {
	return Require(store, RoleAdmin)
}

// RequireClient gates patient operations.
func RequireClient(store *Store) func(http.Handler) http.Handler {
	return Require(store, RoleClient)
}
