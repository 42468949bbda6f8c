package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/fluentia-app/fluentia/internal/auth"
)

// ctxKey is the private type for request context keys.
type ctxKey int

// sessionKey carries the authenticated *auth.Session.
const sessionKey ctxKey = iota

// sessionFrom returns the authenticated session stored by requireAuth, or nil
// when the request did not pass through it.
func sessionFrom(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(sessionKey).(*auth.Session)
	return sess
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns "" when the header is missing or not a Bearer scheme.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// requireAuth resolves the Bearer token to a session and stores it in the
// request context. Missing or invalid tokens get a 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

// requireRole is requireAuth plus an exact role check. Authenticated sessions
// with the wrong role get a 403.
func (s *Server) requireRole(role auth.Role, next http.HandlerFunc) http.Handler {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		if err := s.auth.Authorize(sess, role); err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r)
	})
}
