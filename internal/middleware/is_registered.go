package middleware

import (
	"net/http"

	"roboclub/clubhouse/internal/access"
	"roboclub/clubhouse/internal/metrics"
)

// IsRegisteredMiddleware only needs a signed-in user.
func IsRegisteredMiddleware(m *metrics.MetricsRegistry) func(http.Handler) http.Handler {
	return requireAccess(access.RequireAuthenticated, m)
}
