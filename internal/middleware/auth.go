package middleware

import (
	"net/http"
	"strings"

	"roboclub/clubhouse/internal/auth"
	"roboclub/clubhouse/internal/identity"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/session"
)

// AccessTokenQueryParam carries the bearer token for clients that cannot
// set headers, such as browser websockets.
const AccessTokenQueryParam = "access_token"

// AuthMiddleware opens one session context per request, publishes its
// snapshot as the request's claims and tears it down when the request
// ends.
func AuthMiddleware(provider identity.Provider, profiles session.ProfileReader, roles session.RoleReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			sc := session.New(provider, profiles, roles, token)
			defer sc.Teardown()

			err := sc.Init(r.Context())
			snap := sc.Snapshot()
			if err != nil && token != "" {
				// The session could not be settled; gates answer with Wait
				logging.Warn("Session init failed", "path", r.URL.Path, "error", err)
				snap.Loading = true
			}

			claims := auth.NewSessionClaims(snap)
			recordUser(r.Context(), claims.UserID())

			ctx := auth.SetUserClaims(r.Context(), claims)
			ctx = auth.SetSessionContext(ctx, sc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return r.URL.Query().Get(AccessTokenQueryParam)
}
