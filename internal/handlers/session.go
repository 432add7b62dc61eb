package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hughigh/loginserver/internal/services"
	"github.com/hughigh/loginserver/internal/store"
	"github.com/hughigh/loginserver/internal/token"
	"github.com/hughigh/loginserver/types"
)

// sessionCookieName is the cookie the session token rides in.
const sessionCookieName = "access_token"

// SessionGuard authenticates protected requests and enforces role policy.
type SessionGuard struct {
	users *services.UserService
	codec *token.Codec
}

func NewSessionGuard(users *services.UserService, codec *token.Codec) *SessionGuard {
	return &SessionGuard{users: users, codec: codec}
}

// RequireAuth extracts the session token (cookie first, bearer header as
// fallback), verifies it, resolves the user, and injects the user into the
// request context. Token problems of any kind are a uniform 401; a valid
// token whose user no longer exists is a 404.
func (g *SessionGuard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := sessionToken(r)
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := g.codec.Verify(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := g.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// RequireRole rejects authenticated users whose role is not in allowed.
// Must be mounted after RequireAuth.
func (g *SessionGuard) RequireRole(allowed ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !user.Role.In(allowed...) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionToken finds the session token on a request: cookie first, then a
// bearer authorization header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
