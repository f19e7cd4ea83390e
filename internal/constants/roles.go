package constants

import (
	"database/sql/driver"
	"fmt"
)

// Role mirrors the values stored in user_roles.role
type Role string

const (
	RoleFounder   Role = "founder"
	RoleAdmin     Role = "admin"
	RoleExecutive Role = "executive"
	RoleMember    Role = "member"
)

// AllRoles lists every assignable role, highest precedence first.
var AllRoles = []Role{RoleFounder, RoleAdmin, RoleExecutive, RoleMember}

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFounder, RoleAdmin, RoleExecutive, RoleMember:
		return true
	}
	return false
}

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%q is not a valid role", s)
	}
	return r, nil
}

/* ---------- DB adapters so gorm/sqlx scan and value cleanly ---------- */

// Scan implements the sql.Scanner interface
func (r *Role) Scan(src interface{}) error {
	if src == nil {
		*r = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	default:
		return fmt.Errorf("Role: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (r Role) Value() (driver.Value, error) { return string(r), nil }

// ApplicationStatus mirrors profiles.application_status
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) String() string { return string(s) }

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Scan implements the sql.Scanner interface
func (s *ApplicationStatus) Scan(src interface{}) error {
	if src == nil {
		*s = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*s = ApplicationStatus(v)
	case []byte:
		*s = ApplicationStatus(v)
	default:
		return fmt.Errorf("ApplicationStatus: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (s ApplicationStatus) Value() (driver.Value, error) { return string(s), nil }
