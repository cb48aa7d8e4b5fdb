package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DefaultMiddlewareStack returns the router-wide middleware in the order it
// must be applied. Panics are recovered inside the request logger so the
// resulting 500 is logged and counted.
func DefaultMiddlewareStack(logger *zap.Logger, metrics *Metrics, allowedOrigins []string, isDevelopment bool) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		LoggingMiddleware(logger),
		metrics.Middleware,
		ErrorHandlingMiddleware(logger),
		CORSMiddleware(allowedOrigins, isDevelopment),
		middleware.Compress(5),
	}
}
