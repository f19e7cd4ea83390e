package identity

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionRecord is the server-side half of a session. Deleting it revokes
// the bearer token that names it.
type SessionRecord struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore persists session records. Get returns (nil, nil) for an
// unknown id.
type SessionStore interface {
	Save(ctx context.Context, rec *SessionRecord, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)
	Delete(ctx context.Context, sessionID string) error
	// MarkUsed records a single-use token id. It returns false when the id
	// was already marked.
	MarkUsed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

// MemorySessionStore keeps sessions in process. Used when Redis is not
// configured and in tests.
type MemorySessionStore struct {
	cache *cache.Cache
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore(cleanupInterval time.Duration) *MemorySessionStore {
	return &MemorySessionStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (s *MemorySessionStore) Save(ctx context.Context, rec *SessionRecord, ttl time.Duration) error {
	cp := *rec
	s.cache.Set(sessionKey(rec.SessionID), &cp, ttl)
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*SessionRecord, error) {
	v, ok := s.cache.Get(sessionKey(sessionID))
	if !ok {
		return nil, nil
	}
	cp := *v.(*SessionRecord)
	return &cp, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.cache.Delete(sessionKey(sessionID))
	return nil
}

func (s *MemorySessionStore) MarkUsed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if err := s.cache.Add(usedTokenKey(tokenID), true, ttl); err != nil {
		return false, nil
	}
	return true, nil
}

func sessionKey(id string) string   { return "session:" + id }
func usedTokenKey(id string) string { return "used_token:" + id }
