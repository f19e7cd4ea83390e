package identity

import (
	"context"
	"net/url"
	"strings"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/logging"
	models "roboclub/clubhouse/internal/models/gorm"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("identity")

// AccountStore is the persistence the local provider needs.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type Options struct {
	SessionTTL  time.Duration
	RecoveryTTL time.Duration
}

// LocalProvider implements Provider over the accounts table and a
// SessionStore.
type LocalProvider struct {
	accounts AccountStore
	hasher   PasswordHasher
	signer   *TokenSigner
	sessions SessionStore
	mailer   Mailer
	events   *Broadcaster
	opts     Options
}

var _ Provider = (*LocalProvider)(nil)

func NewLocalProvider(
	accounts AccountStore,
	hasher PasswordHasher,
	signer *TokenSigner,
	sessions SessionStore,
	mailer Mailer,
	opts Options,
) *LocalProvider {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &LocalProvider{
		accounts: accounts,
		hasher:   hasher,
		signer:   signer,
		sessions: sessions,
		mailer:   mailer,
		events:   NewBroadcaster(),
		opts:     opts,
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, meta Metadata) (*User, error) {
	const op = "identity.SignUp"
	ctx, span := tracer.Start(ctx, "Identity.SignUp")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.New(apperr.KindValidation, op, "a valid email is required")
	}
	if len(password) < 6 {
		return nil, apperr.New(apperr.KindValidation, op, "password must be at least 6 characters")
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		span.RecordError(errors.Wrap(err, "hash password"))
		return nil, apperr.Wrap(apperr.KindInternal, op, err)
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(meta.Name),
		Major:        meta.Major,
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		span.RecordError(errors.Wrap(err, "create account"))
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", account.ID))
	logging.Info("Account created", "user_id", account.ID)
	return toUser(account), nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	const op = "identity.SignIn"
	ctx, span := tracer.Start(ctx, "Identity.SignIn")
	defer span.End()

	account, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.New(apperr.KindInvalidCredentials, op, constants.MsgInvalidLogin)
		}
		span.RecordError(errors.Wrap(err, "load account"))
		return nil, err
	}

	ok, err := p.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		span.RecordError(errors.Wrap(err, "verify password"))
		return nil, apperr.Wrap(apperr.KindInternal, op, err)
	}
	if !ok {
		return nil, apperr.New(apperr.KindInvalidCredentials, op, constants.MsgInvalidLogin)
	}

	session, err := p.openSession(ctx, account)
	if err != nil {
		span.RecordError(errors.Wrap(err, "open session"))
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", account.ID))
	p.events.Emit(AuthChange{Event: EventSignedIn, UserID: account.ID, SessionID: session.ID, Session: session})
	return session, nil
}

// SignOut revokes the session behind accessToken. An unknown or expired
// token is already signed out.
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "Identity.SignOut")
	defer span.End()

	claims, err := p.signer.Parse(accessToken, TokenAccess)
	if err != nil {
		return nil
	}

	if err := p.sessions.Delete(ctx, claims.ID); err != nil {
		span.RecordError(errors.Wrap(err, "delete session"))
		return apperr.Wrap(apperr.KindUnavailable, "identity.SignOut", err)
	}

	p.events.Emit(AuthChange{Event: EventSignedOut, UserID: claims.Subject, SessionID: claims.ID})
	return nil
}

func (p *LocalProvider) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Identity.GetSession")
	defer span.End()

	if accessToken == "" {
		return nil, nil
	}
	claims, err := p.signer.Parse(accessToken, TokenAccess)
	if err != nil {
		return nil, nil
	}

	rec, err := p.sessions.Get(ctx, claims.ID)
	if err != nil {
		span.RecordError(errors.Wrap(err, "load session"))
		return nil, apperr.Wrap(apperr.KindUnavailable, "identity.GetSession", err)
	}
	if rec == nil || rec.UserID != claims.Subject {
		return nil, nil
	}
	if time.Now().After(rec.ExpiresAt) {
		_ = p.sessions.Delete(ctx, rec.SessionID)
		return nil, nil
	}

	account, err := p.accounts.GetByID(ctx, rec.UserID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &Session{
		ID:          rec.SessionID,
		AccessToken: accessToken,
		User:        *toUser(account),
		ExpiresAt:   rec.ExpiresAt,
	}, nil
}

// RefreshSession replaces the session behind accessToken with a new one.
func (p *LocalProvider) RefreshSession(ctx context.Context, accessToken string) (*Session, error) {
	const op = "identity.RefreshSession"
	ctx, span := tracer.Start(ctx, "Identity.RefreshSession")
	defer span.End()

	current, err := p.GetSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, op, constants.MsgNotAuthenticated)
	}

	account, err := p.accounts.GetByID(ctx, current.User.ID)
	if err != nil {
		return nil, err
	}
	next, err := p.openSession(ctx, account)
	if err != nil {
		span.RecordError(errors.Wrap(err, "open session"))
		return nil, err
	}
	_ = p.sessions.Delete(ctx, current.ID)

	p.events.Emit(AuthChange{Event: EventTokenRefreshed, UserID: account.ID, SessionID: next.ID, Session: next})
	return next, nil
}

func (p *LocalProvider) OnAuthStateChange(listener Listener) func() {
	return p.events.Subscribe(listener)
}

// ResetPasswordForEmail mails a single-use recovery link. Unknown emails
// succeed silently so callers cannot probe for accounts.
func (p *LocalProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	ctx, span := tracer.Start(ctx, "Identity.ResetPasswordForEmail")
	defer span.End()

	account, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		span.RecordError(errors.Wrap(err, "load account"))
		return err
	}

	token, _, _, err := p.signer.Sign(account.ID, TokenRecovery, p.opts.RecoveryTTL)
	if err != nil {
		span.RecordError(err)
		return apperr.Wrap(apperr.KindInternal, "identity.ResetPasswordForEmail", err)
	}

	return p.mailer.SendPasswordRecovery(ctx, account.Email, recoveryLink(redirectTo, token))
}

// VerifyRecovery exchanges a recovery token for a session. Each token works
// once.
func (p *LocalProvider) VerifyRecovery(ctx context.Context, recoveryToken string) (*Session, error) {
	const op = "identity.VerifyRecovery"
	ctx, span := tracer.Start(ctx, "Identity.VerifyRecovery")
	defer span.End()

	claims, err := p.signer.Parse(recoveryToken, TokenRecovery)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, op, err)
	}

	fresh, err := p.sessions.MarkUsed(ctx, claims.ID, p.opts.RecoveryTTL)
	if err != nil {
		span.RecordError(errors.Wrap(err, "mark recovery token"))
		return nil, apperr.Wrap(apperr.KindUnavailable, op, err)
	}
	if !fresh {
		return nil, apperr.New(apperr.KindUnauthenticated, op, "recovery link already used")
	}

	account, err := p.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	session, err := p.openSession(ctx, account)
	if err != nil {
		return nil, err
	}

	p.events.Emit(AuthChange{Event: EventPasswordRecovery, UserID: account.ID, SessionID: session.ID, Session: session})
	return session, nil
}

func (p *LocalProvider) UpdateUser(ctx context.Context, accessToken string, changes UserChanges) (*User, error) {
	const op = "identity.UpdateUser"
	ctx, span := tracer.Start(ctx, "Identity.UpdateUser")
	defer span.End()

	session, err := p.GetSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, op, constants.MsgNotAuthenticated)
	}

	fields := map[string]interface{}{}
	if changes.Email != nil {
		fields["email"] = *changes.Email
	}
	if changes.Password != nil {
		if len(*changes.Password) < 6 {
			return nil, apperr.New(apperr.KindValidation, op, "password must be at least 6 characters")
		}
		hash, err := p.hasher.Hash(*changes.Password)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, op, err)
		}
		fields["password_hash"] = hash
	}
	if changes.Metadata != nil {
		fields["name"] = changes.Metadata.Name
		fields["major"] = changes.Metadata.Major
	}

	if len(fields) > 0 {
		if err := p.accounts.Update(ctx, session.User.ID, fields); err != nil {
			span.RecordError(errors.Wrap(err, "update account"))
			return nil, err
		}
	}

	account, err := p.accounts.GetByID(ctx, session.User.ID)
	if err != nil {
		return nil, err
	}

	user := toUser(account)
	updated := *session
	updated.User = *user
	p.events.Emit(AuthChange{Event: EventUserUpdated, UserID: user.ID, SessionID: session.ID, Session: &updated})
	return user, nil
}

func (p *LocalProvider) openSession(ctx context.Context, account *models.Account) (*Session, error) {
	token, sessionID, expiresAt, err := p.signer.Sign(account.ID, TokenAccess, p.opts.SessionTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "identity.openSession", err)
	}

	rec := &SessionRecord{
		SessionID: sessionID,
		UserID:    account.ID,
		Email:     account.Email,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	if err := p.sessions.Save(ctx, rec, p.opts.SessionTTL); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "identity.openSession", err)
	}

	return &Session{
		ID:          sessionID,
		AccessToken: token,
		User:        *toUser(account),
		ExpiresAt:   expiresAt,
	}, nil
}

func toUser(a *models.Account) *User {
	return &User{
		ID:        a.ID,
		Email:     a.Email,
		Metadata:  Metadata{Name: a.Name, Major: a.Major},
		CreatedAt: a.CreatedAt,
	}
}

func recoveryLink(redirectTo, token string) string {
	u, err := url.Parse(redirectTo)
	if err != nil || redirectTo == "" {
		return "?type=recovery&token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("type", "recovery")
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
