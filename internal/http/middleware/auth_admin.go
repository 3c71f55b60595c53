package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"botfleet/internal/http/dto"
	"botfleet/internal/infra/adminauth"
	"botfleet/pkg/logger"
)

// AdminAuth requires a valid admin bearer token minted by adminauth.Issuer.
func AdminAuth(issuer *adminauth.Issuer, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeUnauthorized(w, "admin bearer token required")
				return
			}

			if err := issuer.Verify(token); err != nil {
				log.WarnWithFields("admin auth rejected", logger.Fields{
					"path":  r.URL.Path,
					"error": err.Error(),
				})
				writeUnauthorized(w, "invalid or expired admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	resp := dto.NewErrorResponse(message, "UNAUTHORIZED", "")
	_ = json.NewEncoder(w).Encode(resp)
}
