package gorm

import (
	"time"

	"roboclub/clubhouse/internal/constants"

	"gorm.io/gorm"
)

// UserRole grants one role to one user. A user without rows is not approved.
type UserRole struct {
	ID        string         `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID    string         `gorm:"column:user_id;type:uuid;uniqueIndex:idx_user_roles_user_role" json:"user_id"`
	Role      constants.Role `gorm:"column:role;type:varchar(16);uniqueIndex:idx_user_roles_user_role" json:"role"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (UserRole) TableName() string {
	return "user_roles"
}

func (r *UserRole) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
