package middleware

import (
	"net/http"
	"time"

	"roboclub/clubhouse/internal/access"
	"roboclub/clubhouse/internal/auth"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/metrics"
	"roboclub/clubhouse/internal/models/dtos"
)

// RetryAfterSeconds is sent with Wait decisions.
const RetryAfterSeconds = "1"

// requireAccess applies the access gate to the request's claims.
func requireAccess(req access.Requirement, m *metrics.MetricsRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := access.Decide(stateOf(auth.GetUserClaims(r.Context())), req)
			if m != nil {
				m.AccessDecisionsTotal.WithLabelValues(req.String(), decision.String()).Inc()
			}

			if decision == access.Allow {
				next.ServeHTTP(w, r)
				return
			}
			respondDecision(w, decision)
		})
	}
}

func stateOf(claims auth.UserClaims) access.State {
	if claims == nil {
		return access.State{}
	}
	return claims.AccessState()
}

func respondDecision(w http.ResponseWriter, d access.Decision) {
	start := time.Now()
	gate := dtos.GateResponse{Decision: d.String(), Redirect: d.Redirect()}

	switch d {
	case access.Wait:
		w.Header().Set("Retry-After", RetryAfterSeconds)
		common.RespondGate(w, start, "Session is still loading", gate, http.StatusServiceUnavailable)
	case access.RedirectLogin:
		common.RespondGate(w, start, constants.MsgNotAuthenticated, gate, http.StatusUnauthorized)
	case access.RedirectMember:
		common.RespondGate(w, start, constants.MsgAdminRequired, gate, http.StatusForbidden)
	case access.PendingApproval:
		gate.View = "pending_approval"
		gate.Actions = access.PendingActions
		common.RespondGate(w, start, constants.MsgPendingApproval, gate, http.StatusForbidden)
	}
}
