package gorm

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage is immutable once stored except for Read. From and To hold a
// user id or the admin channel name.
type ChatMessage struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	From      string    `gorm:"column:from_id;index" json:"from"`
	To        string    `gorm:"column:to_id;index" json:"to"`
	Content   string    `gorm:"column:content" json:"content"`
	Read      bool      `gorm:"column:read;default:false" json:"read"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
