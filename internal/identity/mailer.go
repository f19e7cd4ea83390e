package identity

import (
	"context"

	"roboclub/clubhouse/internal/logging"
)

// Mailer delivers account emails.
type Mailer interface {
	SendPasswordRecovery(ctx context.Context, email, link string) error
}

// LogMailer writes outgoing mail to the log. It stands in until an SMTP
// relay is configured.
type LogMailer struct{}

func (LogMailer) SendPasswordRecovery(ctx context.Context, email, link string) error {
	logging.Info("Password recovery email", "email", email, "link", link)
	return nil
}
