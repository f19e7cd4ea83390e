package responses

import (
	"time"

	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/identity"
	models "roboclub/clubhouse/internal/models/gorm"
)

// SessionResponse describes the caller's session and derived access flags.
type SessionResponse struct {
	User        *identity.User   `json:"user"`
	Profile     *models.Profile  `json:"profile,omitempty"`
	Roles       []constants.Role `json:"roles"`
	PrimaryRole constants.Role   `json:"primary_role,omitempty"`
	IsAdmin     bool             `json:"is_admin"`
	IsApproved  bool             `json:"is_approved"`
}

// SignInResponse is returned by login, refresh and recovery.
type SignInResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Session     SessionResponse `json:"session"`
}

type ApplicationResponse struct {
	Profile *models.Profile `json:"profile"`
	Status  string          `json:"status"`
}

type AffectedResponse struct {
	Affected int64 `json:"affected"`
}
