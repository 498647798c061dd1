package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/oivindh/raceday/internal/models"
	"gorm.io/gorm"
)

// SessionCookie is the cookie name carrying the opaque session token.
const SessionCookie = "raceday_session"

type contextKey struct{}

// FromContext returns the identity attached by Authenticate.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// TokenFromRequest extracts the session token from the cookie or a bearer
// Authorization header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Authenticate resolves the session and attaches the identity to the request
// context. Requests without a valid session are rejected.
func Authenticate(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := ResolveSession(db, TokenFromRequest(r))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "not logged in")
				return
			}
			ctx := context.WithValue(r.Context(), contextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require allows only the listed roles through. Roles not listed are
// rejected, superadmin included.
func Require(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := FromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "not logged in")
				return
			}
			if !allowed[identity.Role] {
				writeAuthError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
