package identity

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/db/repositories"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testHashParams = HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type captureMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *captureMailer) SendPasswordRecovery(ctx context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func setupProvider(t *testing.T) (*LocalProvider, *captureMailer) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.GormConfig())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	mailer := &captureMailer{}
	p := NewLocalProvider(
		repositories.NewAccountRepository(gdb),
		NewArgon2Hasher(testHashParams),
		NewTokenSigner([]byte("test-secret"), "clubhouse-test"),
		NewMemorySessionStore(time.Minute),
		mailer,
		Options{SessionTTL: time.Hour, RecoveryTTL: 15 * time.Minute},
	)
	return p, mailer
}

func TestArgon2Hasher_RoundTrip(t *testing.T) {
	h := NewArgon2Hasher(testHashParams)

	encoded, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	ok, err := h.Verify("correct horse", encoded)
	if err != nil || !ok {
		t.Errorf("Expected the password to verify, got %v (%v)", ok, err)
	}
	ok, _ = h.Verify("wrong horse", encoded)
	if ok {
		t.Error("Expected a wrong password to fail")
	}
	if _, err := h.Verify("x", "not-a-hash"); err == nil {
		t.Error("Expected an error for a malformed hash")
	}
}

func TestTokenSigner_RejectsWrongKind(t *testing.T) {
	s := NewTokenSigner([]byte("secret"), "iss")

	token, id, _, err := s.Sign("user-1", TokenRecovery, time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := s.Parse(token, TokenAccess); err == nil {
		t.Error("Expected a recovery token to be refused as an access token")
	}
	claims, err := s.Parse(token, TokenRecovery)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.ID != id {
		t.Errorf("Unexpected claims %+v", claims)
	}

	other := NewTokenSigner([]byte("different"), "iss")
	if _, err := other.Parse(token, TokenRecovery); err == nil {
		t.Error("Expected a token signed with another key to fail")
	}
}

func TestTokenSigner_Expired(t *testing.T) {
	s := NewTokenSigner([]byte("secret"), "iss")
	token, _, _, _ := s.Sign("user-1", TokenAccess, time.Minute)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := s.Parse(token, TokenAccess); err == nil {
		t.Error("Expected an expired token to fail")
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster()
	calls := 0
	unsubscribe := b.Subscribe(func(AuthChange) { calls++ })

	b.Emit(AuthChange{Event: EventSignedIn})
	unsubscribe()
	unsubscribe()
	b.Emit(AuthChange{Event: EventSignedOut})

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if b.Len() != 0 {
		t.Errorf("Expected no listeners, got %d", b.Len())
	}
}

func TestLocalProvider_SignUpSignInSignOut(t *testing.T) {
	p, _ := setupProvider(t)
	ctx := context.Background()

	var events []Event
	unsubscribe := p.OnAuthStateChange(func(c AuthChange) { events = append(events, c.Event) })
	defer unsubscribe()

	major := "Mechanical"
	user, err := p.SignUp(ctx, "Ada@Example.com", "secret1", Metadata{Name: "Ada", Major: &major})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if user.Email != "ada@example.com" || user.Metadata.Name != "Ada" {
		t.Errorf("Unexpected user %+v", user)
	}

	if _, err := p.SignUp(ctx, "ada@example.com", "secret1", Metadata{Name: "Ada"}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Expected duplicate email to conflict, got %v", err)
	}

	if _, err := p.SignIn(ctx, "ada@example.com", "nope"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("Expected invalid credentials, got %v", err)
	}
	if _, err := p.SignIn(ctx, "ghost@example.com", "secret1"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("Expected invalid credentials for unknown email, got %v", err)
	}

	session, err := p.SignIn(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	got, err := p.GetSession(ctx, session.AccessToken)
	if err != nil || got == nil {
		t.Fatalf("Expected a live session, got %v (%v)", got, err)
	}
	if got.User.ID != user.ID {
		t.Errorf("Expected session for %s, got %s", user.ID, got.User.ID)
	}

	if err := p.SignOut(ctx, session.AccessToken); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	got, err = p.GetSession(ctx, session.AccessToken)
	if err != nil || got != nil {
		t.Errorf("Expected no session after sign-out, got %v (%v)", got, err)
	}

	if len(events) != 2 || events[0] != EventSignedIn || events[1] != EventSignedOut {
		t.Errorf("Unexpected events %v", events)
	}
}

func TestLocalProvider_GetSessionWithGarbageToken(t *testing.T) {
	p, _ := setupProvider(t)

	s, err := p.GetSession(context.Background(), "garbage")
	if s != nil || err != nil {
		t.Errorf("Expected (nil, nil), got (%v, %v)", s, err)
	}
}

func TestLocalProvider_PasswordRecovery(t *testing.T) {
	p, mailer := setupProvider(t)
	ctx := context.Background()

	if _, err := p.SignUp(ctx, "ada@example.com", "secret1", Metadata{Name: "Ada"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	if err := p.ResetPasswordForEmail(ctx, "nobody@example.com", "https://club.example/reset"); err != nil {
		t.Errorf("Expected unknown email to succeed silently, got %v", err)
	}
	if err := p.ResetPasswordForEmail(ctx, "ada@example.com", "https://club.example/reset"); err != nil {
		t.Fatalf("ResetPasswordForEmail failed: %v", err)
	}
	if len(mailer.links) != 1 {
		t.Fatalf("Expected one recovery email, got %d", len(mailer.links))
	}

	link, err := url.Parse(mailer.links[0])
	if err != nil {
		t.Fatalf("Bad link: %v", err)
	}
	token := link.Query().Get("token")

	session, err := p.VerifyRecovery(ctx, token)
	if err != nil {
		t.Fatalf("VerifyRecovery failed: %v", err)
	}
	if _, err := p.VerifyRecovery(ctx, token); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("Expected a reused recovery token to fail, got %v", err)
	}

	newPassword := "brand-new"
	if _, err := p.UpdateUser(ctx, session.AccessToken, UserChanges{Password: &newPassword}); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if _, err := p.SignIn(ctx, "ada@example.com", "secret1"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("Expected the old password to stop working, got %v", err)
	}
	if _, err := p.SignIn(ctx, "ada@example.com", newPassword); err != nil {
		t.Errorf("Expected the new password to work, got %v", err)
	}
}

func TestLocalProvider_UpdateUserNeedsSession(t *testing.T) {
	p, _ := setupProvider(t)
	name := Metadata{Name: "x"}

	_, err := p.UpdateUser(context.Background(), "", UserChanges{Metadata: &name})
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("Expected unauthenticated, got %v", err)
	}
}
