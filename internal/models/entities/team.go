package entities

import "roboclub/clubhouse/internal/constants"

// TeamRosterRow is one (profile, role) row of the team roster query.
type TeamRosterRow struct {
	ID       string         `db:"id"`
	Name     string         `db:"name"`
	Email    string         `db:"email"`
	Major    string         `db:"major"`
	Bio      string         `db:"bio"`
	ImageURL string         `db:"image_url"`
	Role     constants.Role `db:"role"`
}
