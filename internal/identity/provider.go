// Package identity implements the identity provider surface the session
// context talks to: accounts, sign-in sessions, recovery and auth-state
// notifications.
package identity

import (
	"context"
	"time"
)

// Metadata is the free-form profile data captured at sign-up.
type Metadata struct {
	Name  string  `json:"name"`
	Major *string `json:"major,omitempty"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Metadata  Metadata  `json:"user_metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is an authenticated sign-in. AccessToken is the bearer credential.
type Session struct {
	ID          string    `json:"-"`
	AccessToken string    `json:"access_token"`
	User        User      `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserChanges lists the fields UpdateUser may change. Nil fields are kept.
type UserChanges struct {
	Email    *string
	Password *string
	Metadata *Metadata
}

// Provider is the identity surface. GetSession returns (nil, nil) when the
// token carries no live session.
type Provider interface {
	SignUp(ctx context.Context, email, password string, meta Metadata) (*User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	RefreshSession(ctx context.Context, accessToken string) (*Session, error)
	OnAuthStateChange(listener Listener) (unsubscribe func())
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	VerifyRecovery(ctx context.Context, recoveryToken string) (*Session, error)
	UpdateUser(ctx context.Context, accessToken string, changes UserChanges) (*User, error)
}
