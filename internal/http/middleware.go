package http

import (
	"crypto/subtle"
	"net/http"
)

// AdminKeyMiddleware guards the admin endpoints with a shared key. Real
// admin authentication lives outside this service; this is the narrow hook
// it plugs into. An empty configured key disables the endpoints entirely.
func AdminKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				respondError(w, http.StatusForbidden, "admin_disabled", "admin API is not configured")
				return
			}
			provided := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid admin key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
