package gorm

import (
	"time"

	"gorm.io/gorm"
)

type SiteSetting struct {
	Key       string    `gorm:"column:key;primaryKey;size:64" json:"key"`
	Value     string    `gorm:"column:value" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SiteSetting) TableName() string {
	return "site_settings"
}

type NewsPost struct {
	ID          string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Title       string    `gorm:"column:title" json:"title"`
	Body        string    `gorm:"column:body" json:"body"`
	PublishedAt time.Time `gorm:"column:published_at;index" json:"published_at"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (NewsPost) TableName() string {
	return "news_posts"
}

func (n *NewsPost) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	return nil
}

type Event struct {
	ID          string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Title       string    `gorm:"column:title" json:"title"`
	Description *string   `gorm:"column:description" json:"description"`
	Location    *string   `gorm:"column:location" json:"location"`
	StartsAt    time.Time `gorm:"column:starts_at;index" json:"starts_at"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}

type Project struct {
	ID          string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"column:name" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	ImageURL    *string   `gorm:"column:image_url" json:"image_url"`
	RepoURL     *string   `gorm:"column:repo_url" json:"repo_url"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Account{}, &Profile{}, &UserRole{},
		&Group{}, &GroupMember{},
		&Task{}, &Certificate{}, &Presence{},
		&CompetitionRobot{}, &CompetitionSignup{},
		&ChatMessage{}, &SiteSetting{},
		&NewsPost{}, &Event{}, &Project{},
	}
}
