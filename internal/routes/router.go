package routes

import (
	"context"
	"net/http"
	"time"

	"roboclub/clubhouse/internal/api"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/metrics"
	"roboclub/clubhouse/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func RegisterRoutes(deps *api.Dependencies, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	metricsReg := deps.Metrics

	// global middleware
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// health check and scrape endpoint sit outside the session middleware
	r.Get("/healthCheck", api.HealthCheckHandler(healthChecks(deps), upSince))
	r.Handle("/metrics", metricsReg.Handler())

	handlers := api.NewHandlers(deps)
	authMiddleware := middleware.AuthMiddleware(deps.Services.Identity, deps.Repo.Profiles, deps.Repo.Roles)
	loginLimiter := middleware.NewRateLimiter(deps.Config.LoginRateLimit, deps.Config.LoginBurst)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		RegisterAuthRoutes(r, handlers, loginLimiter, metricsReg)
		RegisterAPIRoutes(r, handlers, deps)
		RegisterPageRoutes(r, handlers, deps)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondError(w, time.Now(), nil, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondError(w, time.Now(), nil, "Method not allowed", http.StatusMethodNotAllowed)
	})

	logging.Info("Router initialized with metrics and logging middleware")
	return r
}

func healthChecks(deps *api.Dependencies) map[string]api.Pinger {
	checks := map[string]api.Pinger{
		"postgres": deps.Repo.Team,
	}
	if client := deps.Infra.Redis; client != nil {
		checks["redis"] = api.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return checks
}

// RegisterAuthRoutes mounts the identity endpoints under /auth. Login and
// password reset share the per-IP limiter.
func RegisterAuthRoutes(r chi.Router, handlers *api.Handlers, limiter *middleware.RateLimiter, metricsReg *metrics.MetricsRegistry) {
	r.Route("/auth", func(a chi.Router) {
		a.Post("/signup", handlers.SignUpHandler())
		a.Get("/session", handlers.SessionHandler())
		a.Post("/logout", handlers.LogoutHandler())
		a.Post("/refresh", handlers.RefreshHandler())
		a.Post("/password/recover", handlers.PasswordRecoverHandler())

		a.Group(func(limited chi.Router) {
			limited.Use(limiter.Middleware)
			limited.Post("/login", handlers.LoginHandler())
			limited.Post("/password/reset", handlers.PasswordResetHandler())
		})

		a.With(middleware.IsRegisteredMiddleware(metricsReg)).Post("/password/update", handlers.PasswordUpdateHandler())
	})
}
