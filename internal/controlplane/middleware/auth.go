// Package middleware holds the control plane's chi middleware:
// bearer-token authentication, grounded on the teacher's
// controlplane/api/middleware package.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/smbdfs/smbd/internal/controlplane/auth"
)

type contextKey int

const claimsContextKey contextKey = iota

// GetClaimsFromContext returns the claims JWTAuth attached to the
// request context, or nil if none are present.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// JWTAuth requires a valid access-token bearer credential, attaching
// its claims to the request context for downstream handlers.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "error",
		"error":  reason,
	})
}
