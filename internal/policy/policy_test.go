package policy

import (
	"testing"

	"roboclub/clubhouse/internal/constants"
)

func TestCanViewProfileEmail(t *testing.T) {
	tests := []struct {
		name   string
		viewer Viewer
		want   bool
	}{
		{"anonymous", Viewer{}, false},
		{"self", Viewer{UserID: "p1", Roles: []constants.Role{constants.RoleMember}}, true},
		{"other member", Viewer{UserID: "p2", Roles: []constants.Role{constants.RoleMember}}, false},
		{"founder is not admin", Viewer{UserID: "p2", Roles: []constants.Role{constants.RoleFounder}}, false},
		{"admin", Viewer{UserID: "p3", Roles: []constants.Role{constants.RoleAdmin}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewProfileEmail(tt.viewer, "p1"); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHasRole(t *testing.T) {
	if !HasRole([]constants.Role{constants.RoleMember, constants.RoleAdmin}, constants.RoleAdmin) {
		t.Error("Expected admin to be found")
	}
	if HasRole(nil, constants.RoleMember) {
		t.Error("Expected an empty set to hold no role")
	}
}
