package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	CartCookieName = "cart_session"
	cartExpiry     = 30 * 24 * time.Hour
)

type sessionKeyType struct{}

var sessionKey = sessionKeyType{}

// SessionStore ensures the backing row for a session token exists.
type SessionStore interface {
	EnsureSession(ctx context.Context, sessionID string, expiresAt time.Time) error
}

// CartSessionMiddleware identifies the anonymous buyer. It reads the cart
// cookie, minting a fresh random token when absent, persists the session row
// idempotently, and passes the session id down via context.
func CartSessionMiddleware(store SessionStore, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if c, err := r.Cookie(CartCookieName); err == nil && c.Value != "" {
				sessionID = c.Value
			} else {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartCookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cartExpiry.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if err := store.EnsureSession(r.Context(), sessionID, time.Now().Add(cartExpiry)); err != nil {
				log.Printf("failed to ensure cart session: %v", err)
				respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionKey).(string); ok {
		return sessionID
	}
	return ""
}

// existingSessionID returns the session token only when the cookie already
// exists; order creation must not mint a session for a buyer with no cart.
func existingSessionID(r *http.Request) string {
	if c, err := r.Cookie(CartCookieName); err == nil {
		return c.Value
	}
	return ""
}

// clearCartCookie expires the cookie once the cart has been consumed.
func clearCartCookie(w http.ResponseWriter, secureCookie bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
