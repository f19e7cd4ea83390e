package auth

import (
	"roboclub/clubhouse/internal/access"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/policy"
	"roboclub/clubhouse/internal/session"
)

// UserClaims is what handlers need to know about the caller.
type UserClaims interface {
	UserID() string
	Email() string
	Roles() []constants.Role
	IsAdmin() bool
	IsApproved() bool
	Source() string
	HasRole(role constants.Role) bool
	Viewer() policy.Viewer
	AccessState() access.State
}

// SessionClaims are derived from a session snapshot.
type SessionClaims struct {
	snap session.Snapshot
}

func NewSessionClaims(snap session.Snapshot) *SessionClaims {
	return &SessionClaims{snap: snap}
}

func (c *SessionClaims) UserID() string { return c.snap.UserID() }
func (c *SessionClaims) Email() string {
	if c.snap.User == nil {
		return ""
	}
	return c.snap.User.Email
}
func (c *SessionClaims) Roles() []constants.Role          { return c.snap.Roles }
func (c *SessionClaims) IsAdmin() bool                    { return c.snap.IsAdmin }
func (c *SessionClaims) IsApproved() bool                 { return c.snap.IsApproved }
func (c *SessionClaims) Source() string                   { return "SESSION" }
func (c *SessionClaims) HasRole(role constants.Role) bool { return policy.HasRole(c.snap.Roles, role) }
func (c *SessionClaims) Viewer() policy.Viewer {
	return policy.Viewer{UserID: c.snap.UserID(), Roles: c.snap.Roles}
}

func (c *SessionClaims) AccessState() access.State { return c.snap.AccessState() }
