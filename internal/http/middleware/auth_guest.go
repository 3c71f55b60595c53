package middleware

import (
	"context"
	"net/http"

	"botfleet/internal/domain/guest"
	"botfleet/internal/infra/guestauth"
	"botfleet/pkg/logger"
)

type guestClaimsKey struct{}

// GuestAuth requires a valid guest bearer token and attaches its claims to
// the request context for handlers to read via GuestClaimsFromContext.
func GuestAuth(issuer *guestauth.Issuer, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeUnauthorized(w, "guest bearer token required")
				return
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				log.WarnWithFields("guest auth rejected", logger.Fields{
					"path":  r.URL.Path,
					"error": err.Error(),
				})
				writeUnauthorized(w, "invalid or expired guest token")
				return
			}

			ctx := context.WithValue(r.Context(), guestClaimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuestClaimsFromContext retrieves the guest claims attached by GuestAuth.
func GuestClaimsFromContext(ctx context.Context) (*guest.Claims, bool) {
	claims, ok := ctx.Value(guestClaimsKey{}).(*guest.Claims)
	return claims, ok
}
