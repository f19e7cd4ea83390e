// Package session holds the per-root session context: who is signed in,
// their profile, their roles and the derived access flags.
package session

import (
	"context"
	"sync"

	"roboclub/clubhouse/internal/access"
	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/identity"
	"roboclub/clubhouse/internal/logging"
	models "roboclub/clubhouse/internal/models/gorm"
	"roboclub/clubhouse/internal/roles"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProfileReader loads a profile by user id. A missing row is reported as
// an apperr not_found error.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

type RoleReader interface {
	ListForUser(ctx context.Context, userID string) ([]constants.Role, error)
}

// Snapshot is a consistent copy of the context state.
type Snapshot struct {
	User       *identity.User
	Profile    *models.Profile
	Roles      []constants.Role
	IsAdmin    bool
	IsApproved bool
	Loading    bool
}

func (s Snapshot) Authenticated() bool { return s.User != nil }

func (s Snapshot) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// AccessState projects the snapshot onto the access gate input.
func (s Snapshot) AccessState() access.State {
	return access.State{
		Loading:       s.Loading,
		Authenticated: s.Authenticated(),
		IsAdmin:       s.IsAdmin,
		IsApproved:    s.IsApproved,
	}
}

// Context is written only by its own operations and its auth listener;
// readers take a Snapshot.
type Context struct {
	provider identity.Provider
	profiles ProfileReader
	roles    RoleReader
	token    string
	log      *zap.SugaredLogger

	mu          sync.RWMutex
	state       Snapshot
	session     *identity.Session
	listenerCtx context.Context

	unsubscribe  func()
	teardownOnce sync.Once

	signedOut     chan struct{}
	signedOutOnce sync.Once
}

// New builds a context for one root. token is the bearer credential the
// root arrived with and may be empty.
func New(provider identity.Provider, profiles ProfileReader, roleReader RoleReader, token string) *Context {
	return &Context{
		provider:  provider,
		profiles:  profiles,
		roles:     roleReader,
		token:     token,
		log:       logging.Module("session"),
		state:     Snapshot{Loading: true},
		signedOut: make(chan struct{}),
	}
}

// Init subscribes to auth changes, then resolves the existing session.
// Loading clears once the first fetch finishes or no session is found.
func (c *Context) Init(ctx context.Context) error {
	c.mu.Lock()
	c.listenerCtx = context.WithoutCancel(ctx)
	c.mu.Unlock()
	c.unsubscribe = c.provider.OnAuthStateChange(c.handleAuthChange)

	sess, err := c.provider.GetSession(ctx, c.token)
	if err != nil {
		c.log.Warnw("Failed to resolve session", "error", err)
		c.setLoading(false)
		return err
	}
	if sess == nil {
		c.setLoading(false)
		return nil
	}

	c.adopt(sess)
	return c.FetchUserData(ctx, sess.User.ID)
}

// FetchUserData reads the profile and role assignments in parallel and
// recomputes the flags. On failure the prior state is kept.
func (c *Context) FetchUserData(ctx context.Context, userID string) error {
	var (
		profile *models.Profile
		held    []constants.Role
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.profiles.GetByID(gctx, userID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil
			}
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		r, err := c.roles.ListForUser(gctx, userID)
		if err != nil {
			return err
		}
		held = r
		return nil
	})

	if err := g.Wait(); err != nil {
		c.log.Errorw("Failed to fetch user data", "user_id", userID, "error", err)
		c.setLoading(false)
		return err
	}

	flags := roles.Capabilities(held)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.User == nil || c.state.User.ID != userID {
		// signed out or switched while the reads were in flight
		c.state.Loading = false
		return nil
	}
	c.state.Profile = profile
	c.state.Roles = held
	c.state.IsAdmin = flags.IsAdmin
	c.state.IsApproved = flags.IsApproved
	c.state.Loading = false
	return nil
}

// SignIn authenticates and refuses accounts without any role assignment.
// A refused sign-in leaves no session behind.
func (c *Context) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	const op = "session.SignIn"

	sess, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	held, err := c.roles.ListForUser(ctx, sess.User.ID)
	if err != nil || len(held) == 0 {
		if signOutErr := c.provider.SignOut(ctx, sess.AccessToken); signOutErr != nil {
			c.log.Errorw("Failed to revoke unapproved session", "user_id", sess.User.ID, "error", signOutErr)
		}
		c.clear()
		if err != nil {
			return nil, err
		}
		return nil, apperr.New(apperr.KindPendingApproval, op, constants.MsgPendingApproval)
	}

	c.adopt(sess)
	if err := c.FetchUserData(ctx, sess.User.ID); err != nil {
		return sess, err
	}
	return sess, nil
}

// SignUp registers an identity carrying name and major as metadata. It
// creates no profile or role rows.
func (c *Context) SignUp(ctx context.Context, email, password, name string, major *string) (*identity.User, error) {
	return c.provider.SignUp(ctx, email, password, identity.Metadata{Name: name, Major: major})
}

// SignOut delegates to the provider, then clears local state whether or
// not the provider call succeeded.
func (c *Context) SignOut(ctx context.Context) error {
	token := c.Token()
	var err error
	if token != "" {
		err = c.provider.SignOut(ctx, token)
	}
	c.clear()
	return err
}

// Refresh swaps the current session for a fresh one.
func (c *Context) Refresh(ctx context.Context) (*identity.Session, error) {
	sess, err := c.provider.RefreshSession(ctx, c.Token())
	if err != nil {
		return nil, err
	}
	c.adopt(sess)
	return sess, nil
}

// Teardown removes the auth listener. Safe to call more than once.
func (c *Context) Teardown() {
	c.teardownOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
	})
}

func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.state
	if c.state.Roles != nil {
		s.Roles = append([]constants.Role(nil), c.state.Roles...)
	}
	return s
}

// Token returns the bearer token of the current session, if any.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session != nil {
		return c.session.AccessToken
	}
	return c.token
}

func (c *Context) Session() *identity.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Context) handleAuthChange(change identity.AuthChange) {
	c.mu.RLock()
	current := c.session
	ctx := c.listenerCtx
	c.mu.RUnlock()

	if current == nil {
		return
	}

	switch change.Event {
	case identity.EventSignedOut:
		if change.SessionID == current.ID {
			c.clear()
		}
	case identity.EventUserUpdated:
		if change.UserID == current.User.ID {
			if change.Session != nil && change.SessionID == current.ID {
				c.adopt(change.Session)
			}
			_ = c.FetchUserData(ctx, change.UserID)
		}
	}
}

func (c *Context) adopt(sess *identity.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
	user := sess.User
	c.state.User = &user
}

// SignedOut is closed the first time a session held by this context ends,
// whether by its own SignOut or by a sign-out seen through the listener.
func (c *Context) SignedOut() <-chan struct{} {
	return c.signedOut
}

func (c *Context) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.signedOutOnce.Do(func() { close(c.signedOut) })
	}
	c.session = nil
	c.token = ""
	c.state = Snapshot{}
}

func (c *Context) setLoading(v bool) {
	c.mu.Lock()
	c.state.Loading = v
	c.mu.Unlock()
}
