package requests

import "time"

// ApplyRequest signs up a new identity and submits its application.
type ApplyRequest struct {
	SignUpRequest
	Reason string `json:"reason" validate:"required,min=1,max=2000"`
}

type SubmitApplicationRequest struct {
	Name   string  `json:"name" validate:"required,min=2,max=100"`
	Major  *string `json:"major,omitempty" validate:"omitempty,max=100"`
	Reason string  `json:"reason" validate:"required,min=1,max=2000"`
}

type ScheduleInterviewRequest struct {
	Date     *time.Time `json:"date,omitempty"`
	Location *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	Notes    *string    `json:"notes,omitempty" validate:"omitempty,max=5000"`
}
