package routes

import (
	"roboclub/clubhouse/internal/api"
	"roboclub/clubhouse/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterPageRoutes mirrors the client routes so each page can load its
// data, and run its access gate, with one request.
func RegisterPageRoutes(r chi.Router, handlers *api.Handlers, deps *api.Dependencies) {
	metricsReg := deps.Metrics

	r.Get("/", handlers.HomeHandler())
	r.Get("/about", handlers.HomeHandler())
	r.Get("/team", handlers.TeamHandler())
	r.Get("/projects", handlers.ProjectsHandler())
	r.Get("/events", handlers.EventsHandler())
	r.Get("/news", handlers.NewsHandler())
	r.Get("/groups", handlers.GroupsHandler())
	r.Get("/competition", handlers.CompetitionHandler())

	// apply and login only need the button and popup flags
	r.Get("/apply", handlers.SettingsHandler())
	r.Get("/login", handlers.SettingsHandler())

	r.With(middleware.IsMemberMiddleware(metricsReg)).Get("/member", handlers.DashboardHandler())
	r.With(middleware.IsAdminMiddleware(metricsReg)).Get("/admin", handlers.AdminOverviewHandler())
}
