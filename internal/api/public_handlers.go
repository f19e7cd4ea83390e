package api

import (
	"context"
	"net/http"
	"time"

	"roboclub/clubhouse/internal/auth"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/policy"
)

// HomeHandler handles GET /api/v1/public/home
func (h *Handlers) HomeHandler() http.HandlerFunc {
	return h.publicList("Home loaded", func(ctx context.Context, _ policy.Viewer) (any, error) {
		return h.deps.Services.Content.Home(ctx)
	})
}

// TeamHandler handles GET /api/v1/public/team. Member emails are only
// included for the member themselves and for admins.
func (h *Handlers) TeamHandler() http.HandlerFunc {
	return h.publicList("Team loaded", func(ctx context.Context, v policy.Viewer) (any, error) {
		return h.deps.Services.Content.Team(ctx, v)
	})
}

func (h *Handlers) ProjectsHandler() http.HandlerFunc {
	return h.publicList("Projects loaded", func(ctx context.Context, _ policy.Viewer) (any, error) {
		return h.deps.Services.Content.Projects(ctx)
	})
}

func (h *Handlers) EventsHandler() http.HandlerFunc {
	return h.publicList("Events loaded", func(ctx context.Context, _ policy.Viewer) (any, error) {
		return h.deps.Services.Content.Events(ctx)
	})
}

func (h *Handlers) NewsHandler() http.HandlerFunc {
	return h.publicList("News loaded", func(ctx context.Context, _ policy.Viewer) (any, error) {
		return h.deps.Services.Content.News(ctx)
	})
}

func (h *Handlers) GroupsHandler() http.HandlerFunc {
	return h.publicList("Groups loaded", func(ctx context.Context, _ policy.Viewer) (any, error) {
		return h.deps.Services.Groups.List(ctx)
	})
}

// CompetitionHandler handles GET /api/v1/public/competition. Signed-in
// callers also see which robots they joined.
func (h *Handlers) CompetitionHandler() http.HandlerFunc {
	return h.publicList("Robots loaded", func(ctx context.Context, v policy.Viewer) (any, error) {
		return h.deps.Services.Competition.List(ctx, v.UserID)
	})
}

func (h *Handlers) SettingsHandler() http.HandlerFunc {
	return h.publicList("Settings loaded", func(ctx context.Context, _ policy.Viewer) (any, error) {
		return h.deps.Services.Settings.All(ctx)
	})
}

func (h *Handlers) publicList(okMsg string, load func(ctx context.Context, v policy.Viewer) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var viewer policy.Viewer
		if claims := auth.GetUserClaims(r.Context()); claims != nil {
			viewer = claims.Viewer()
		}

		data, err := load(r.Context(), viewer)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadContent)
			return
		}
		common.RespondSuccess(w, initTime, okMsg, data)
	}
}
