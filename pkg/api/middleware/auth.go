// Package middleware provides HTTP middleware for the realm API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/marmos91/sqlrealm/pkg/api/auth"
	"github.com/marmos91/sqlrealm/pkg/api/handlers"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the token claims stored by BearerAuth, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// BearerAuth rejects requests without a valid bearer token and stores the
// token claims in the request context.
func BearerAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				handlers.Unauthorized(w, "Authorization header required")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					handlers.Unauthorized(w, "Token has expired")
					return
				}
				handlers.Unauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
