package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/auth"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/models/dtos/requests"
)

// longPollWait bounds how long a chat poll request is held open.
const longPollWait = 25 * time.Second

type Handlers struct {
	deps     *Dependencies
	pollWait time.Duration
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps:     deps,
		pollWait: longPollWait,
	}
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.New(apperr.KindValidation, "api.decode", constants.MsgInvalidRequestBody)
	}
	return requests.Validate(dst)
}

// caller returns the claims of a signed-in caller or answers 401. Routes
// behind the gates never hit the 401 branch.
func caller(w http.ResponseWriter, r *http.Request, initTime time.Time) (auth.UserClaims, bool) {
	claims, ok := callerClaims(r)
	if !ok {
		common.RespondError(w, initTime, nil, constants.MsgNotAuthenticated, http.StatusUnauthorized)
	}
	return claims, ok
}

func callerClaims(r *http.Request) (auth.UserClaims, bool) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil || claims.UserID() == "" {
		return nil, false
	}
	return claims, true
}

// sinceParam parses ?since= as RFC 3339. A missing value is the zero time.
func sinceParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, apperr.New(apperr.KindValidation, "api.since", "since must be an RFC 3339 timestamp")
	}
	return t, nil
}

func limitParam(r *http.Request, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
