package gorm

import (
	"time"

	"gorm.io/gorm"
)

type CompetitionRobot struct {
	ID          string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"column:name" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	Slots       int       `gorm:"column:slots" json:"slots"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (CompetitionRobot) TableName() string {
	return "competition_robots"
}

func (r *CompetitionRobot) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

type CompetitionSignup struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	RobotID   string    `gorm:"column:robot_id;type:uuid;uniqueIndex:idx_competition_signups_pair" json:"robot_id"`
	UserID    string    `gorm:"column:user_id;type:uuid;uniqueIndex:idx_competition_signups_pair" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (CompetitionSignup) TableName() string {
	return "competition_signups"
}

func (s *CompetitionSignup) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
