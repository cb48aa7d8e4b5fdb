package middleware

import (
	"net/http"

	"inventory-api/internal/auth"

	"go.uber.org/zap"
)

// RequireAuthenticated admits any caller with a valid token
func RequireAuthenticated(guard *auth.Guard, logger *zap.Logger) func(http.Handler) http.Handler {
	return RequirePolicy(guard, auth.Authenticated, logger)
}

// RequireAdmin middleware ensures the user has the Admin role
func RequireAdmin(guard *auth.Guard, logger *zap.Logger) func(http.Handler) http.Handler {
	return RequirePolicy(guard, auth.AdminOnly, logger)
}
