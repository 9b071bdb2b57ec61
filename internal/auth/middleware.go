package auth

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

const ParentIDKey contextKey = "parent_id"

// AuthMiddleware resolves the session cookie when there is one and stores the
// parent ID in the request context. Requests without a valid session pass
// through; operations that need one reject them through Authorize.
func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		parentID, expires, err := h.parseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		// Sliding session: refresh token if it's more than halfway through its duration
		if time.Until(expires) < TokenDuration/2 {
			if newToken, err := h.GenerateToken(parentID); err == nil {
				http.SetCookie(w, sessionCookie(newToken))
			}
		}

		ctx := context.WithValue(r.Context(), ParentIDKey, parentID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
