// Package roles turns stored role assignments into the flags used for
// access gating and the single role used for display grouping.
package roles

import "roboclub/clubhouse/internal/constants"

// precedence ranks roles for display; lower wins.
var precedence = map[constants.Role]int{
	constants.RoleFounder:   0,
	constants.RoleAdmin:     1,
	constants.RoleExecutive: 2,
	constants.RoleMember:    3,
}

// Flags are derived independently of precedence.
type Flags struct {
	IsApproved bool `json:"is_approved"`
	IsAdmin    bool `json:"is_admin"`
}

// Capabilities computes the gating flags for a role set.
func Capabilities(roles []constants.Role) Flags {
	return Flags{
		IsApproved: len(roles) > 0,
		IsAdmin:    Has(roles, constants.RoleAdmin),
	}
}

// Has reports whether role is present in roles.
func Has(roles []constants.Role, role constants.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole returns the highest-precedence role. An empty set falls back
// to member for display only; it does not make the user approved.
func PrimaryRole(roles []constants.Role) constants.Role {
	best := constants.RoleMember
	bestRank := len(precedence)
	for _, r := range roles {
		rank, ok := precedence[r]
		if !ok {
			continue
		}
		if rank < bestRank {
			best, bestRank = r, rank
		}
	}
	return best
}

// Section is one block of the team page.
type Section[T any] struct {
	Role    constants.Role `json:"role"`
	Members []T            `json:"members"`
}

// GroupByPrimaryRole buckets items by the primary role of each item's role
// set and returns the sections in precedence order, skipping empty ones.
// Input order is preserved within a section.
func GroupByPrimaryRole[T any](items []T, rolesOf func(T) []constants.Role) []Section[T] {
	buckets := make(map[constants.Role][]T, len(constants.AllRoles))
	for _, item := range items {
		primary := PrimaryRole(rolesOf(item))
		buckets[primary] = append(buckets[primary], item)
	}

	sections := make([]Section[T], 0, len(buckets))
	for _, role := range constants.AllRoles {
		if members, ok := buckets[role]; ok {
			sections = append(sections, Section[T]{Role: role, Members: members})
		}
	}
	return sections
}
