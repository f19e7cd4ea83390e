package repositories

import (
	"context"

	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

// TeamRepository runs the hand-written roster read over sqlx
type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db}
}

// Roster returns one row per (profile, role) pair.
func (r *TeamRepository) Roster(ctx context.Context) ([]entities.TeamRosterRow, error) {
	var rows []entities.TeamRosterRow

	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(constants.TeamRoster))
	if err != nil {
		return nil, storeErr("TeamRepository.Roster", "failed to load team roster", err)
	}
	return rows, nil
}

// Ping checks the sqlx pool for the health endpoint.
func (r *TeamRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
