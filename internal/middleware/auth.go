package middleware

import (
	"context"
	"errors"
	"net/http"

	"inventory-api/internal/auth"

	"go.uber.org/zap"
)

const (
	msgUnauthorized = "Unauthorized."
	msgForbidden    = "Forbidden."
)

// RequirePolicy validates the bearer token of each request against policy.
// Requests without a valid token get 401, valid tokens lacking the policy's
// role get 403. Accepted claims are stored in the request context.
func RequirePolicy(guard *auth.Guard, policy auth.Policy, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))

			claims, err := guard.Authorize(token, policy)
			switch {
			case errors.Is(err, auth.ErrForbidden):
				logger.Warn("Access denied",
					zap.String("policy", policy.Name),
					zap.String("username", claims.Username()),
					zap.Strings("roles", claims.Roles),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, msgForbidden)
				return
			case err != nil:
				logger.Debug("Token validation failed",
					zap.String("policy", policy.Name),
					zap.Error(err),
				)
				RespondWithError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			logger.Debug("User authenticated",
				zap.String("username", claims.Username()),
				zap.Strings("roles", claims.Roles),
			)

			recordActor(r.Context(), claims.Username())
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// GetUsername extracts the authenticated username from request context
func GetUsername(ctx context.Context) (string, bool) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.Username(), claims.Username() != ""
}
