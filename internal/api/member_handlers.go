package api

import (
	"net/http"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/models/dtos/requests"

	"github.com/go-chi/chi/v5"
)

// MsgCompetitionClosed is returned when the competition_open setting is off.
const MsgCompetitionClosed = "Competition signups are closed"

// DashboardHandler handles GET /api/v1/member/dashboard
func (h *Handlers) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, ok := caller(w, r, initTime)
		if !ok {
			return
		}

		dash, err := h.deps.Services.Members.Dashboard(r.Context(), claims.UserID())
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadDashboard)
			return
		}
		common.RespondSuccess(w, initTime, "Dashboard loaded", dash)
	}
}

// UpdateProfileHandler handles PUT /api/v1/member/profile
func (h *Handlers) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, ok := caller(w, r, initTime)
		if !ok {
			return
		}

		var req requests.UpdateProfileRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateProfile)
			return
		}

		profile, err := h.deps.Services.Members.UpdateProfile(r.Context(), claims.UserID(), req)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateProfile)
			return
		}
		common.RespondSuccess(w, initTime, "Profile updated", profile)
	}
}

// ToggleTaskHandler handles PUT /api/v1/member/tasks/{taskID}. Members
// can only toggle their own tasks.
func (h *Handlers) ToggleTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, ok := caller(w, r, initTime)
		if !ok {
			return
		}

		var req requests.ToggleTaskRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateRecords)
			return
		}

		if err := h.deps.Services.Members.ToggleTask(r.Context(), claims.UserID(), chi.URLParam(r, "taskID"), req.Completed); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdateRecords)
			return
		}
		common.RespondSuccess(w, initTime, "Task updated", nil)
	}
}

// RobotSignupHandler handles POST /api/v1/member/competition/{robotID}/signup
func (h *Handlers) RobotSignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, ok := caller(w, r, initTime)
		if !ok {
			return
		}

		open, err := h.deps.Services.Settings.Enabled(r.Context(), constants.SettingCompetitionIsOpen)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSignup)
			return
		}
		if !open {
			common.RespondAppError(w, initTime, apperr.New(apperr.KindInvalidTransition, "api.RobotSignup", MsgCompetitionClosed), constants.MsgFailedSignup)
			return
		}

		if err := h.deps.Services.Competition.Signup(r.Context(), chi.URLParam(r, "robotID"), claims.UserID()); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSignup)
			return
		}
		common.RespondSuccess(w, initTime, "Signed up", nil, http.StatusCreated)
	}
}

// RobotWithdrawHandler handles DELETE /api/v1/member/competition/{robotID}/signup
func (h *Handlers) RobotWithdrawHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, ok := caller(w, r, initTime)
		if !ok {
			return
		}

		if err := h.deps.Services.Competition.Withdraw(r.Context(), chi.URLParam(r, "robotID"), claims.UserID()); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSignup)
			return
		}
		common.RespondSuccess(w, initTime, "Signup withdrawn", nil)
	}
}
