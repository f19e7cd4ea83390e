package requests

type UpdateProfileRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Major       *string `json:"major,omitempty" validate:"omitempty,max=100"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
	GithubURL   *string `json:"github_url,omitempty" validate:"omitempty,url"`
	LinkedinURL *string `json:"linkedin_url,omitempty" validate:"omitempty,url"`
}

type ToggleTaskRequest struct {
	Completed bool `json:"completed"`
}

type SendMessageRequest struct {
	To      string `json:"to,omitempty"`
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
