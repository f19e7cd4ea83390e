package api

import (
	"net/http"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/auth"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/models/dtos/requests"
	"roboclub/clubhouse/internal/models/dtos/responses"
	"roboclub/clubhouse/internal/services"

	"github.com/go-chi/chi/v5"
)

// ApplyHandler handles POST /api/v1/apply: sign up and submit in one call.
func (h *Handlers) ApplyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.ApplyRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSubmitApplication)
			return
		}

		_, profile, err := h.deps.Services.Applications.Apply(r.Context(), req.Email, req.Password, services.ApplicationInput{
			Name:   req.Name,
			Email:  req.Email,
			Major:  req.Major,
			Reason: req.Reason,
		})
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSubmitApplication)
			return
		}

		resp := responses.ApplicationResponse{Profile: profile, Status: profile.ApplicationStatus.String()}
		common.RespondSuccess(w, initTime, "Application submitted", resp, http.StatusCreated)
	}
}

// SubmitApplicationHandler handles POST /api/v1/me/application for a
// signed-in identity.
func (h *Handlers) SubmitApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, ok := caller(w, r, initTime)
		if !ok {
			return
		}

		var req requests.SubmitApplicationRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSubmitApplication)
			return
		}

		profile, err := h.deps.Services.Applications.Submit(r.Context(), claims.UserID(), services.ApplicationInput{
			Name:   req.Name,
			Email:  claims.Email(),
			Major:  req.Major,
			Reason: req.Reason,
		})
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSubmitApplication)
			return
		}

		resp := responses.ApplicationResponse{Profile: profile, Status: profile.ApplicationStatus.String()}
		common.RespondSuccess(w, initTime, "Application submitted", resp, http.StatusCreated)
	}
}

// MeHandler handles GET /api/v1/me.
func (h *Handlers) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if _, ok := caller(w, r, initTime); !ok {
			return
		}
		sc := auth.GetSessionContext(r.Context())
		if sc == nil {
			common.RespondError(w, initTime, nil, constants.MsgNotAuthenticated, http.StatusUnauthorized)
			return
		}
		common.RespondSuccess(w, initTime, "Session loaded", sessionResponse(sc.Snapshot()))
	}
}

// ListApplicationsHandler handles GET /api/v1/admin/applications?status=
func (h *Handlers) ListApplicationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var status *constants.ApplicationStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			s := constants.ApplicationStatus(raw)
			status = &s
		}

		list, err := h.deps.Services.Applications.List(r.Context(), status)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadApplications)
			return
		}
		common.RespondSuccess(w, initTime, "Applications loaded", list)
	}
}

// AcceptApplicationHandler handles POST /api/v1/admin/applications/{userID}/accept
func (h *Handlers) AcceptApplicationHandler() http.HandlerFunc {
	return h.transition(constants.MsgFailedAccept, "Application accepted", func(r *http.Request, userID string) error {
		return h.deps.Services.Applications.Accept(r.Context(), userID)
	})
}

// RejectApplicationHandler handles POST /api/v1/admin/applications/{userID}/reject
func (h *Handlers) RejectApplicationHandler() http.HandlerFunc {
	return h.transition(constants.MsgFailedReject, "Application rejected", func(r *http.Request, userID string) error {
		return h.deps.Services.Applications.Reject(r.Context(), userID)
	})
}

// RemoveMemberHandler handles DELETE /api/v1/admin/members/{userID}
func (h *Handlers) RemoveMemberHandler() http.HandlerFunc {
	return h.transition(constants.MsgFailedRemoveMember, "Member removed", func(r *http.Request, userID string) error {
		return h.deps.Services.Applications.RemoveMember(r.Context(), userID)
	})
}

// ScheduleInterviewHandler handles PUT /api/v1/admin/applications/{userID}/interview
func (h *Handlers) ScheduleInterviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.ScheduleInterviewRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedScheduleInterview)
			return
		}

		err := h.deps.Services.Applications.ScheduleInterview(r.Context(), chi.URLParam(r, "userID"), req.Date, req.Location, req.Notes)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedScheduleInterview)
			return
		}
		common.RespondSuccess(w, initTime, "Interview scheduled", nil)
	}
}

// transition runs fn against the {userID} path param.
func (h *Handlers) transition(failMsg, okMsg string, fn func(r *http.Request, userID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		userID := chi.URLParam(r, "userID")
		if userID == "" {
			common.RespondAppError(w, initTime, apperr.New(apperr.KindValidation, "api.transition", "user id is required"), failMsg)
			return
		}
		if err := fn(r, userID); err != nil {
			common.RespondAppError(w, initTime, err, failMsg)
			return
		}
		common.RespondSuccess(w, initTime, okMsg, nil)
	}
}
