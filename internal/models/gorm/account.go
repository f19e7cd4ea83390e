package gorm

import (
	"time"

	"gorm.io/gorm"
)

// Account is the identity record owned by the identity provider.
type Account struct {
	ID           string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	Name         string    `gorm:"column:name" json:"name"`
	Major        *string   `gorm:"column:major" json:"major"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
