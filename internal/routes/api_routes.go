package routes

import (
	"roboclub/clubhouse/internal/api"
	"roboclub/clubhouse/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
// This keeps API route registration separate from the main router setup
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, deps *api.Dependencies) {
	metricsReg := deps.Metrics

	r.Route("/api/v1", func(v1 chi.Router) {
		// Public
		v1.Route("/public", func(public chi.Router) {
			public.Get("/home", handlers.HomeHandler())
			public.Get("/team", handlers.TeamHandler())
			public.Get("/projects", handlers.ProjectsHandler())
			public.Get("/events", handlers.EventsHandler())
			public.Get("/news", handlers.NewsHandler())
			public.Get("/groups", handlers.GroupsHandler())
			public.Get("/competition", handlers.CompetitionHandler())
			public.Get("/settings", handlers.SettingsHandler())
		})
		v1.Post("/apply", handlers.ApplyHandler())

		// Registered users group: signed in, approval not required
		v1.Group(func(registered chi.Router) {
			registered.Use(middleware.IsRegisteredMiddleware(metricsReg))

			registered.Get("/me", handlers.MeHandler())
			registered.Post("/me/application", handlers.SubmitApplicationHandler())
		})

		// Member-only group
		v1.Route("/member", func(member chi.Router) {
			member.Use(middleware.IsMemberMiddleware(metricsReg))

			member.Get("/dashboard", handlers.DashboardHandler())
			member.Put("/profile", handlers.UpdateProfileHandler())
			member.Put("/tasks/{taskID}", handlers.ToggleTaskHandler())

			member.Post("/competition/{robotID}/signup", handlers.RobotSignupHandler())
			member.Delete("/competition/{robotID}/signup", handlers.RobotWithdrawHandler())

			member.Route("/chat", func(c chi.Router) {
				c.Get("/", handlers.ConversationHandler(api.MemberThread))
				c.Post("/", handlers.SendMessageHandler(api.MemberThread))
				c.Post("/read", handlers.MarkReadHandler(api.MemberThread))
				c.Get("/poll", handlers.PollHandler(api.MemberThread))
				c.Get("/stream", handlers.StreamHandler(false))
			})
		})

		// Admin-only group
		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.IsAdminMiddleware(metricsReg))

			admin.Get("/overview", handlers.AdminOverviewHandler())

			admin.Get("/applications", handlers.ListApplicationsHandler())
			admin.Post("/applications/{userID}/accept", handlers.AcceptApplicationHandler())
			admin.Post("/applications/{userID}/reject", handlers.RejectApplicationHandler())
			admin.Put("/applications/{userID}/interview", handlers.ScheduleInterviewHandler())

			admin.Get("/members", handlers.ListMembersHandler())
			admin.Post("/members", handlers.CreateMemberHandler())
			admin.Delete("/members/{userID}", handlers.RemoveMemberHandler())

			admin.Get("/roles", handlers.ListRolesHandler())
			admin.Post("/roles", handlers.AssignRoleHandler())
			admin.Put("/roles/{id}", handlers.ChangeRoleHandler())
			admin.Delete("/roles/{id}", handlers.DeleteRoleHandler())

			admin.Post("/tasks", handlers.CreateTaskHandler())
			admin.Delete("/tasks/{id}", handlers.DeleteTaskHandler())
			admin.Post("/certificates", handlers.CreateCertificateHandler())
			admin.Delete("/certificates/{id}", handlers.DeleteCertificateHandler())
			admin.Put("/presence", handlers.UpsertPresenceHandler())

			admin.Post("/groups", handlers.CreateGroupHandler())
			admin.Delete("/groups/{id}", handlers.DeleteGroupHandler())
			admin.Post("/groups/{id}/members", handlers.AddGroupMemberHandler())
			admin.Delete("/groups/{id}/members/{userID}", handlers.RemoveGroupMemberHandler())

			admin.Post("/robots", handlers.CreateRobotHandler())
			admin.Delete("/robots/{id}", handlers.DeleteRobotHandler())

			admin.Put("/settings/{key}", handlers.SetSettingHandler())

			admin.Post("/news", handlers.CreateNewsHandler())
			admin.Delete("/news/{id}", handlers.DeleteNewsHandler())
			admin.Post("/events", handlers.CreateEventHandler())
			admin.Delete("/events/{id}", handlers.DeleteEventHandler())
			admin.Post("/projects", handlers.CreateProjectHandler())
			admin.Delete("/projects/{id}", handlers.DeleteProjectHandler())

			admin.Route("/chat", func(c chi.Router) {
				c.Get("/inbox", handlers.InboxHandler())
				c.Get("/stream", handlers.StreamHandler(true))
				c.Get("/{memberID}", handlers.ConversationHandler(api.AdminThread))
				c.Post("/{memberID}", handlers.SendMessageHandler(api.AdminThread))
				c.Post("/{memberID}/read", handlers.MarkReadHandler(api.AdminThread))
				c.Get("/{memberID}/poll", handlers.PollHandler(api.AdminThread))
			})
		})
	})
}
