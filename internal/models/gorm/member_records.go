package gorm

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Text      string    `gorm:"column:text" json:"text"`
	Completed bool      `gorm:"column:completed;default:false" json:"completed"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

type Certificate struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Name      string    `gorm:"column:name" json:"name"`
	IssuedAt  time.Time `gorm:"column:issued_at" json:"issued_at"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Presence records attendance for one week. WeekDate is YYYY-MM-DD.
type Presence struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"column:user_id;type:uuid;uniqueIndex:idx_presences_user_week" json:"user_id"`
	WeekDate  string    `gorm:"column:week_date;type:varchar(10);uniqueIndex:idx_presences_user_week" json:"week_date"`
	Present   bool      `gorm:"column:present" json:"present"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Presence) TableName() string {
	return "presences"
}

func (p *Presence) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
