package gorm

import (
	"time"

	"roboclub/clubhouse/internal/constants"
)

// Profile is the public and application record of a club user. Its ID is
// the identity's user id.
type Profile struct {
	ID                           string                      `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name                         string                      `gorm:"column:name" json:"name"`
	Email                        string                      `gorm:"column:email;size:255" json:"email"`
	Major                        *string                     `gorm:"column:major" json:"major"`
	Bio                          *string                     `gorm:"column:bio" json:"bio"`
	ImageURL                     *string                     `gorm:"column:image_url" json:"image_url"`
	GithubURL                    *string                     `gorm:"column:github_url" json:"github_url"`
	LinkedinURL                  *string                     `gorm:"column:linkedin_url" json:"linkedin_url"`
	ApplicationStatus            constants.ApplicationStatus `gorm:"column:application_status;type:varchar(16);default:'pending'" json:"application_status"`
	ApplicationInterviewDate     *time.Time                  `gorm:"column:application_interview_date" json:"application_interview_date"`
	ApplicationInterviewLocation *string                     `gorm:"column:application_interview_location" json:"application_interview_location"`
	ApplicationNotes             *string                     `gorm:"column:application_notes" json:"application_notes,omitempty"`
	ApplicationReason            *string                     `gorm:"column:application_reason" json:"application_reason"`
	ApplicationSubmittedAt       *time.Time                  `gorm:"column:application_submitted_at" json:"application_submitted_at"`
	CreatedAt                    time.Time                   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt                    time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}
