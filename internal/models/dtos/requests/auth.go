package requests

type SignUpRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Major    *string `json:"major,omitempty" validate:"omitempty,max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type PasswordResetRequest struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	RedirectTo string `json:"redirect_to,omitempty" validate:"omitempty,url"`
}

type PasswordRecoverRequest struct {
	Token string `json:"token" validate:"required"`
}

type PasswordUpdateRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}
