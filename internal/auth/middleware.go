package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tobiasgrant/storefront/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// Middleware validates the bearer access token and injects its claims into
// the request context. Verification is purely signature + expiry; there is
// no revocation state to consult.
func Middleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims := tm.Verify(parts[1])
			if claims == nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts access-token claims from the request context
func GetUserFromContext(r *http.Request) *models.AccessClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}
