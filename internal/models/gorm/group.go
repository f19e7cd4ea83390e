package gorm

import (
	"time"

	"gorm.io/gorm"
)

type Group struct {
	ID          string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"column:name" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relationships
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// TableName specifies the table name for GORM
func (Group) TableName() string {
	return "groups"
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	assignID(&g.ID)
	return nil
}

type GroupMember struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	GroupID   string    `gorm:"column:group_id;type:uuid;uniqueIndex:idx_group_members_pair" json:"group_id"`
	UserID    string    `gorm:"column:user_id;type:uuid;uniqueIndex:idx_group_members_pair" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (GroupMember) TableName() string {
	return "group_members"
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
