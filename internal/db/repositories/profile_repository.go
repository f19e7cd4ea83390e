package repositories

import (
	"context"

	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository manages profile rows with GORM
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(gdb *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: gdb}
}

// GetByID retrieves a profile by user id. A missing row is a not_found error.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile

	err := db.Conn(ctx, r.db).Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, storeErr("ProfileRepository.GetByID", "failed to fetch profile", err)
	}

	return &profile, nil
}

// List returns profiles ordered by name, optionally filtered by status.
func (r *ProfileRepository) List(ctx context.Context, status *constants.ApplicationStatus) ([]models.Profile, error) {
	var profiles []models.Profile

	q := db.Conn(ctx, r.db)
	if status != nil {
		q = q.Where("application_status = ?", *status)
	}
	err := q.Order("name ASC").Find(&profiles).Error
	if err != nil {
		return nil, storeErr("ProfileRepository.List", "failed to list profiles", err)
	}

	return profiles, nil
}

// ListApplications returns profiles with a submitted application, newest first.
func (r *ProfileRepository) ListApplications(ctx context.Context, status *constants.ApplicationStatus) ([]models.Profile, error) {
	var profiles []models.Profile

	q := db.Conn(ctx, r.db).Where("application_submitted_at IS NOT NULL")
	if status != nil {
		q = q.Where("application_status = ?", *status)
	}
	err := q.Order("application_submitted_at DESC").Find(&profiles).Error
	if err != nil {
		return nil, storeErr("ProfileRepository.ListApplications", "failed to list applications", err)
	}

	return profiles, nil
}

func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	err := db.Conn(ctx, r.db).Create(profile).Error
	return storeErr("ProfileRepository.Create", "failed to create profile", err)
}

// UpsertApplication inserts the profile or overwrites the application
// columns of an existing row while leaving the rest untouched.
func (r *ProfileRepository) UpsertApplication(ctx context.Context, profile *models.Profile) error {
	err := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "email", "major",
				"application_status", "application_reason", "application_submitted_at",
				"updated_at",
			}),
		}).
		Create(profile).Error
	return storeErr("ProfileRepository.UpsertApplication", "failed to save application", err)
}

// Update writes the given columns of one profile.
func (r *ProfileRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := db.Conn(ctx, r.db).Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return storeErr("ProfileRepository.Update", "failed to update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("ProfileRepository.Update", "profile")
	}
	return nil
}

func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	err := db.Conn(ctx, r.db).Where("id = ?", id).Delete(&models.Profile{}).Error
	return storeErr("ProfileRepository.Delete", "failed to delete profile", err)
}
