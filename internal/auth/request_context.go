package auth

import (
	"context"

	"roboclub/clubhouse/internal/session"
)

type contextKey string

var userClaimsKey contextKey = "user_claims"
var sessionContextKey contextKey = "session_context"

func SetUserClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// GetUserClaims returns nil for anonymous requests.
func GetUserClaims(ctx context.Context) UserClaims {
	val := ctx.Value(userClaimsKey)
	if claims, ok := val.(UserClaims); ok {
		return claims
	}
	return nil
}

// SetSessionContext stores the per-request session context for handlers
// that sign in, sign out or refresh.
func SetSessionContext(ctx context.Context, sc *session.Context) context.Context {
	return context.WithValue(ctx, sessionContextKey, sc)
}

func GetSessionContext(ctx context.Context) *session.Context {
	if sc, ok := ctx.Value(sessionContextKey).(*session.Context); ok {
		return sc
	}
	return nil
}
