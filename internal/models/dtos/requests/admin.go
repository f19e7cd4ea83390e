package requests

import "time"

type AssignRoleRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=founder admin executive member"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=founder admin executive member"`
}

// CreateMemberRequest creates an account, an accepted profile and a member
// role in one step.
type CreateMemberRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Major    *string `json:"major,omitempty" validate:"omitempty,max=100"`
}

type CreateTaskRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Text   string `json:"text" validate:"required,min=1,max=500"`
}

type CreateCertificateRequest struct {
	UserID   string     `json:"user_id" validate:"required"`
	Name     string     `json:"name" validate:"required,min=1,max=200"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`
}

type UpsertPresenceRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	WeekDate string `json:"week_date" validate:"required,datetime=2006-01-02"`
	Present  bool   `json:"present"`
}

type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type GroupMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type CreateRobotRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Slots       int     `json:"slots" validate:"required,min=1,max=100"`
}

type SetSettingRequest struct {
	Value string `json:"value" validate:"max=2000"`
}

type CreateNewsRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Body        string     `json:"body" validate:"required"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty" validate:"omitempty,max=255"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
}

type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
	RepoURL     *string `json:"repo_url,omitempty" validate:"omitempty,url"`
}
