// Package access decides whether a protected entry point may render.
package access

import "roboclub/clubhouse/internal/constants"

// Requirement is what an entry point demands of the caller.
type Requirement int

const (
	// RequireAuthenticated only needs a signed-in user.
	RequireAuthenticated Requirement = iota
	// RequireApproved needs a signed-in user holding at least one role.
	RequireApproved
	// RequireAdmin needs a signed-in admin.
	RequireAdmin
)

func (r Requirement) String() string {
	switch r {
	case RequireApproved:
		return "approved"
	case RequireAdmin:
		return "admin"
	}
	return "authenticated"
}

// State is the slice of session state the gate looks at.
type State struct {
	Loading       bool
	Authenticated bool
	IsAdmin       bool
	IsApproved    bool
}

// Decision is the outcome of a gate check.
type Decision int

const (
	// Wait renders a neutral waiting state; no access decision is made.
	Wait Decision = iota
	// RedirectLogin sends unauthenticated callers to the login route.
	RedirectLogin
	// RedirectMember sends authenticated callers lacking admin to the
	// member dashboard.
	RedirectMember
	// PendingApproval renders the terminal pending view. It is not a
	// redirect so the dashboard route cannot loop on itself.
	PendingApproval
	// Allow renders the protected content.
	Allow
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case RedirectMember:
		return "redirect_member"
	case PendingApproval:
		return "pending_approval"
	}
	return "allow"
}

// Decide is pure: same inputs, same decision.
func Decide(s State, req Requirement) Decision {
	if s.Loading {
		return Wait
	}
	if !s.Authenticated {
		return RedirectLogin
	}
	if req == RequireAdmin && !s.IsAdmin {
		return RedirectMember
	}
	if req >= RequireApproved && !s.IsApproved {
		return PendingApproval
	}
	return Allow
}

// Redirect returns the route a redirect decision points to, or "" for
// decisions that render in place.
func (d Decision) Redirect() string {
	switch d {
	case RedirectLogin:
		return constants.RouteLogin
	case RedirectMember:
		return constants.RouteMember
	}
	return ""
}

// PendingActions are the only actions offered on the pending view.
var PendingActions = []string{"logout", "home"}
