package api

import (
	"net/http"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/auth"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/identity"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/models/dtos/requests"
	"roboclub/clubhouse/internal/models/dtos/responses"
	"roboclub/clubhouse/internal/roles"
	"roboclub/clubhouse/internal/session"
)

// SignUpHandler handles POST /auth/signup. It creates an identity only;
// no profile or role rows.
func (h *Handlers) SignUpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.SignUpRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSignUp)
			return
		}

		sc := auth.GetSessionContext(r.Context())
		if sc == nil {
			sc = session.New(h.deps.Services.Identity, h.deps.Repo.Profiles, h.deps.Repo.Roles, "")
			defer sc.Teardown()
		}

		user, err := sc.SignUp(r.Context(), req.Email, req.Password, req.Name, req.Major)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSignUp)
			return
		}

		common.RespondSuccess(w, initTime, "Account created", user, http.StatusCreated)
	}
}

// LoginHandler handles POST /auth/login. Accounts without any role are
// refused with pending_approval and keep no session.
func (h *Handlers) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.SignInRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSignIn)
			return
		}

		sc := auth.GetSessionContext(r.Context())
		if sc == nil {
			sc = session.New(h.deps.Services.Identity, h.deps.Repo.Profiles, h.deps.Repo.Roles, "")
			defer sc.Teardown()
		}

		sess, err := sc.SignIn(r.Context(), req.Email, req.Password)
		h.countSignIn(err)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSignIn)
			return
		}

		logging.Info("User signed in", "user_id", sess.User.ID)
		common.RespondSuccess(w, initTime, "Signed in", signInResponse(sess, sc.Snapshot()))
	}
}

// LogoutHandler handles POST /auth/logout. Local state is cleared even
// when the provider call fails.
func (h *Handlers) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		sc := auth.GetSessionContext(r.Context())
		if sc == nil {
			common.RespondSuccess(w, initTime, "Signed out", nil)
			return
		}
		if err := sc.SignOut(r.Context()); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSignOut)
			return
		}
		common.RespondSuccess(w, initTime, "Signed out", nil)
	}
}

// SessionHandler handles GET /auth/session. Anonymous callers get an
// empty session rather than an error.
func (h *Handlers) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		sc := auth.GetSessionContext(r.Context())
		if sc == nil {
			common.RespondSuccess(w, initTime, "No session", responses.SessionResponse{Roles: []constants.Role{}})
			return
		}
		common.RespondSuccess(w, initTime, "Session loaded", sessionResponse(sc.Snapshot()))
	}
}

// RefreshHandler handles POST /auth/refresh.
func (h *Handlers) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		sc := auth.GetSessionContext(r.Context())
		if sc == nil || sc.Token() == "" {
			common.RespondError(w, initTime, nil, constants.MsgNotAuthenticated, http.StatusUnauthorized)
			return
		}
		sess, err := sc.Refresh(r.Context())
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadSession)
			return
		}
		common.RespondSuccess(w, initTime, "Session refreshed", signInResponse(sess, sc.Snapshot()))
	}
}

// PasswordResetHandler handles POST /auth/password/reset. The response is
// the same whether or not the email is known.
func (h *Handlers) PasswordResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.PasswordResetRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedResetPassword)
			return
		}

		redirect := req.RedirectTo
		if redirect == "" {
			redirect = h.deps.Config.PasswordResetRedirect
		}
		if err := h.deps.Services.Identity.ResetPasswordForEmail(r.Context(), req.Email, redirect); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedResetPassword)
			return
		}
		common.RespondSuccess(w, initTime, "If the account exists a reset link has been sent", nil)
	}
}

// PasswordRecoverHandler handles POST /auth/password/recover. A valid
// recovery token opens a session so the password can be updated.
func (h *Handlers) PasswordRecoverHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.PasswordRecoverRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedResetPassword)
			return
		}

		sess, err := h.deps.Services.Identity.VerifyRecovery(r.Context(), req.Token)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedResetPassword)
			return
		}

		resp := responses.SignInResponse{
			AccessToken: sess.AccessToken,
			ExpiresAt:   sess.ExpiresAt,
			Session:     responses.SessionResponse{User: &sess.User, Roles: []constants.Role{}},
		}
		common.RespondSuccess(w, initTime, "Recovery verified", resp)
	}
}

// PasswordUpdateHandler handles POST /auth/password/update for the
// signed-in caller.
func (h *Handlers) PasswordUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		sc := auth.GetSessionContext(r.Context())
		if sc == nil || sc.Token() == "" {
			common.RespondError(w, initTime, nil, constants.MsgNotAuthenticated, http.StatusUnauthorized)
			return
		}

		var req requests.PasswordUpdateRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdatePassword)
			return
		}

		user, err := h.deps.Services.Identity.UpdateUser(r.Context(), sc.Token(), identity.UserChanges{Password: &req.Password})
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedUpdatePassword)
			return
		}
		common.RespondSuccess(w, initTime, "Password updated", user)
	}
}

func (h *Handlers) countSignIn(err error) {
	if h.deps.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	h.deps.Metrics.SignInsTotal.WithLabelValues(outcome).Inc()
}

func sessionResponse(snap session.Snapshot) responses.SessionResponse {
	resp := responses.SessionResponse{
		User:       snap.User,
		Profile:    snap.Profile,
		Roles:      snap.Roles,
		IsAdmin:    snap.IsAdmin,
		IsApproved: snap.IsApproved,
	}
	if resp.Roles == nil {
		resp.Roles = []constants.Role{}
	}
	if len(snap.Roles) > 0 {
		resp.PrimaryRole = roles.PrimaryRole(snap.Roles)
	}
	if resp.Profile != nil {
		p := *resp.Profile
		p.ApplicationNotes = nil
		resp.Profile = &p
	}
	return resp
}

func signInResponse(sess *identity.Session, snap session.Snapshot) responses.SignInResponse {
	return responses.SignInResponse{
		AccessToken: sess.AccessToken,
		ExpiresAt:   sess.ExpiresAt,
		Session:     sessionResponse(snap),
	}
}
