package api

import (
	"context"
	"net/http"
	"time"

	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/models/dtos/requests"
	models "roboclub/clubhouse/internal/models/gorm"
	"roboclub/clubhouse/internal/services"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// AdminOverview is what the admin dashboard opens with.
type AdminOverview struct {
	Pending []models.Profile         `json:"pending_applications"`
	Members []services.MemberSummary `json:"members"`
	Inbox   []services.InboxEntry    `json:"inbox"`
}

// AdminOverviewHandler handles GET /api/v1/admin/overview and the /admin
// page route.
func (h *Handlers) AdminOverviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var out AdminOverview
		pending := constants.ApplicationPending

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() (err error) {
			out.Pending, err = h.deps.Services.Applications.List(ctx, &pending)
			return err
		})
		g.Go(func() (err error) {
			out.Members, err = h.deps.Services.Members.ListMembers(ctx)
			return err
		})
		g.Go(func() (err error) {
			out.Inbox, err = h.deps.Services.Chat.AdminInbox(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadDashboard)
			return
		}
		common.RespondSuccess(w, initTime, "Overview loaded", out)
	}
}

// ListMembersHandler handles GET /api/v1/admin/members
func (h *Handlers) ListMembersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		members, err := h.deps.Services.Members.ListMembers(r.Context())
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadDashboard)
			return
		}
		common.RespondSuccess(w, initTime, "Members loaded", members)
	}
}

// CreateMemberHandler handles POST /api/v1/admin/members
func (h *Handlers) CreateMemberHandler() http.HandlerFunc {
	return create(constants.MsgFailedCreateMember, "Member created", func(ctx context.Context, req requests.CreateMemberRequest) (any, error) {
		return h.deps.Services.Members.CreateMember(ctx, req)
	})
}

// ListRolesHandler handles GET /api/v1/admin/roles?user_id=
func (h *Handlers) ListRolesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		rows, err := h.deps.Services.Roles.List(r.Context(), r.URL.Query().Get("user_id"))
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateRole)
			return
		}
		common.RespondSuccess(w, initTime, "Roles loaded", rows)
	}
}

// AssignRoleHandler handles POST /api/v1/admin/roles
func (h *Handlers) AssignRoleHandler() http.HandlerFunc {
	return create(constants.MsgFailedUpdateRole, "Role assigned", func(ctx context.Context, req requests.AssignRoleRequest) (any, error) {
		return nil, h.deps.Services.Roles.Assign(ctx, req.UserID, req.Role)
	})
}

// ChangeRoleHandler handles PUT /api/v1/admin/roles/{id}
func (h *Handlers) ChangeRoleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.ChangeRoleRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateRole)
			return
		}
		if err := h.deps.Services.Roles.Change(r.Context(), chi.URLParam(r, "id"), req.Role); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateRole)
			return
		}
		common.RespondSuccess(w, initTime, "Role changed", nil)
	}
}

// DeleteRoleHandler handles DELETE /api/v1/admin/roles/{id}
func (h *Handlers) DeleteRoleHandler() http.HandlerFunc {
	return remove(constants.MsgFailedUpdateRole, "Role removed", h.deps.Services.Roles.Delete)
}

func (h *Handlers) CreateTaskHandler() http.HandlerFunc {
	return create(constants.MsgFailedUpdateRecords, "Task created", func(ctx context.Context, req requests.CreateTaskRequest) (any, error) {
		return h.deps.Services.Members.CreateTask(ctx, req.UserID, req.Text)
	})
}

func (h *Handlers) DeleteTaskHandler() http.HandlerFunc {
	return remove(constants.MsgFailedUpdateRecords, "Task deleted", h.deps.Services.Members.DeleteTask)
}

func (h *Handlers) CreateCertificateHandler() http.HandlerFunc {
	return create(constants.MsgFailedUpdateRecords, "Certificate created", func(ctx context.Context, req requests.CreateCertificateRequest) (any, error) {
		return h.deps.Services.Members.CreateCertificate(ctx, req.UserID, req.Name, req.IssuedAt)
	})
}

func (h *Handlers) DeleteCertificateHandler() http.HandlerFunc {
	return remove(constants.MsgFailedUpdateRecords, "Certificate deleted", h.deps.Services.Members.DeleteCertificate)
}

// UpsertPresenceHandler handles PUT /api/v1/admin/presence
func (h *Handlers) UpsertPresenceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.UpsertPresenceRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateRecords)
			return
		}
		row, err := h.deps.Services.Members.SetPresence(r.Context(), req.UserID, req.WeekDate, req.Present)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateRecords)
			return
		}
		common.RespondSuccess(w, initTime, "Presence saved", row)
	}
}

func (h *Handlers) CreateGroupHandler() http.HandlerFunc {
	return create(constants.MsgFailedUpdateGroup, "Group created", func(ctx context.Context, req requests.CreateGroupRequest) (any, error) {
		return h.deps.Services.Groups.Create(ctx, req.Name, req.Description)
	})
}

func (h *Handlers) DeleteGroupHandler() http.HandlerFunc {
	return remove(constants.MsgFailedUpdateGroup, "Group deleted", h.deps.Services.Groups.Delete)
}

// AddGroupMemberHandler handles POST /api/v1/admin/groups/{id}/members
func (h *Handlers) AddGroupMemberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.GroupMemberRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateGroup)
			return
		}
		if err := h.deps.Services.Groups.AddMember(r.Context(), chi.URLParam(r, "id"), req.UserID); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateGroup)
			return
		}
		common.RespondSuccess(w, initTime, "Member added to group", nil, http.StatusCreated)
	}
}

// RemoveGroupMemberHandler handles DELETE /api/v1/admin/groups/{id}/members/{userID}
func (h *Handlers) RemoveGroupMemberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := h.deps.Services.Groups.RemoveMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userID")); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateGroup)
			return
		}
		common.RespondSuccess(w, initTime, "Member removed from group", nil)
	}
}

func (h *Handlers) CreateRobotHandler() http.HandlerFunc {
	return create(constants.MsgFailedSaveContent, "Robot created", func(ctx context.Context, req requests.CreateRobotRequest) (any, error) {
		return h.deps.Services.Competition.CreateRobot(ctx, req.Name, req.Description, req.Slots)
	})
}

func (h *Handlers) DeleteRobotHandler() http.HandlerFunc {
	return remove(constants.MsgFailedSaveContent, "Robot deleted", h.deps.Services.Competition.DeleteRobot)
}

// SetSettingHandler handles PUT /api/v1/admin/settings/{key}
func (h *Handlers) SetSettingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.SetSettingRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSaveSetting)
			return
		}
		if err := h.deps.Services.Settings.Set(r.Context(), chi.URLParam(r, "key"), req.Value); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSaveSetting)
			return
		}
		common.RespondSuccess(w, initTime, "Setting saved", nil)
	}
}

func (h *Handlers) CreateNewsHandler() http.HandlerFunc {
	return create(constants.MsgFailedSaveContent, "News posted", func(ctx context.Context, req requests.CreateNewsRequest) (any, error) {
		return h.deps.Services.Content.CreateNews(ctx, req.Title, req.Body, req.PublishedAt)
	})
}

func (h *Handlers) DeleteNewsHandler() http.HandlerFunc {
	return remove(constants.MsgFailedSaveContent, "News deleted", h.deps.Services.Content.DeleteNews)
}

func (h *Handlers) CreateEventHandler() http.HandlerFunc {
	return create(constants.MsgFailedSaveContent, "Event created", func(ctx context.Context, req requests.CreateEventRequest) (any, error) {
		return h.deps.Services.Content.CreateEvent(ctx, req.Title, req.Description, req.Location, req.StartsAt)
	})
}

func (h *Handlers) DeleteEventHandler() http.HandlerFunc {
	return remove(constants.MsgFailedSaveContent, "Event deleted", h.deps.Services.Content.DeleteEvent)
}

func (h *Handlers) CreateProjectHandler() http.HandlerFunc {
	return create(constants.MsgFailedSaveContent, "Project created", func(ctx context.Context, req requests.CreateProjectRequest) (any, error) {
		return h.deps.Services.Content.CreateProject(ctx, req.Name, req.Description, req.ImageURL, req.RepoURL)
	})
}

func (h *Handlers) DeleteProjectHandler() http.HandlerFunc {
	return remove(constants.MsgFailedSaveContent, "Project deleted", h.deps.Services.Content.DeleteProject)
}

// create decodes and validates a T, then answers 201 with whatever fn
// returns.
func create[T any](failMsg, okMsg string, fn func(ctx context.Context, req T) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req T
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, failMsg)
			return
		}
		data, err := fn(r.Context(), req)
		if err != nil {
			common.RespondAppError(w, initTime, err, failMsg)
			return
		}
		common.RespondSuccess(w, initTime, okMsg, data, http.StatusCreated)
	}
}

// remove deletes the row named by the {id} path param.
func remove(failMsg, okMsg string, fn func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := fn(r.Context(), chi.URLParam(r, "id")); err != nil {
			common.RespondAppError(w, initTime, err, failMsg)
			return
		}
		common.RespondSuccess(w, initTime, okMsg, nil)
	}
}
