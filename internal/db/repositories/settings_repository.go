package repositories

import (
	"context"

	"roboclub/clubhouse/internal/db"
	models "roboclub/clubhouse/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(gdb *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: gdb}
}

func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	var rows []models.SiteSetting
	if err := db.Conn(ctx, r.db).Find(&rows).Error; err != nil {
		return nil, storeErr("SettingsRepository.All", "failed to load settings", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var row models.SiteSetting
	err := db.Conn(ctx, r.db).Where(&models.SiteSetting{Key: key}).First(&row).Error
	if err != nil {
		return "", storeErr("SettingsRepository.Get", "failed to load setting", err)
	}
	return row.Value, nil
}

// Set upserts one setting by key.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	row := &models.SiteSetting{Key: key, Value: value}
	err := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(row).Error
	return storeErr("SettingsRepository.Set", "failed to save setting", err)
}
