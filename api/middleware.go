package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/warp/schooladmin/domain"
)

type userKey struct{}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey{}).(*domain.User)
	return u
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Authenticate resolves a bearer token to an active user and stores it in
// the request context. A token that is present but invalid is always
// rejected; a missing token is rejected only when AUTH_REQUIRED is set.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			if h.Config.AuthRequired {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		userID, err := h.Tokens.Parse(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			fail(w, err)
			return
		}
		user, err := h.Store.Users().Get(r.Context(), userID)
		if err != nil {
			if domain.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "User not found", nil)
				return
			}
			fail(w, err)
			return
		}
		if !user.IsActive {
			writeError(w, http.StatusForbidden, "Inactive user", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

// RequireUser rejects requests without an authenticated user, whatever
// AUTH_REQUIRED says.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperuser guards administrative routes when AUTH_REQUIRED is set.
func (h *Handler) RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Config.AuthRequired {
			next.ServeHTTP(w, r)
			return
		}
		u := CurrentUser(r.Context())
		if u == nil || !u.IsSuperuser {
			writeError(w, http.StatusForbidden, "The user doesn't have enough privileges", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
