package middleware

import (
	"net/http"

	"roboclub/clubhouse/internal/access"
	"roboclub/clubhouse/internal/metrics"
)

func IsAdminMiddleware(m *metrics.MetricsRegistry) func(http.Handler) http.Handler {
	return requireAccess(access.RequireAdmin, m)
}
