// Package policy holds the read-only predicates the store boundary and the
// handlers share.
package policy

import (
	"roboclub/clubhouse/internal/constants"
)

// Viewer is whoever is asking. A zero Viewer is anonymous.
type Viewer struct {
	UserID string
	Roles  []constants.Role
}

// HasRole reports whether roles contains role.
func HasRole(roles []constants.Role, role constants.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanViewProfileEmail allows a profile's email to the profile owner and to
// admins.
func CanViewProfileEmail(v Viewer, profileID string) bool {
	if v.UserID == "" {
		return false
	}
	return v.UserID == profileID || HasRole(v.Roles, constants.RoleAdmin)
}
