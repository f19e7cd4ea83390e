package middleware

import (
	"net/http"

	"roboclub/clubhouse/internal/access"
	"roboclub/clubhouse/internal/metrics"
)

// IsMemberMiddleware needs a signed-in user holding at least one role.
// Users without a role get the pending approval view, not a redirect.
func IsMemberMiddleware(m *metrics.MetricsRegistry) func(http.Handler) http.Handler {
	return requireAccess(access.RequireApproved, m)
}
