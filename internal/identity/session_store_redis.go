package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roboclub/clubhouse/internal/logging"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore manages sessions in Redis
type RedisSessionStore struct {
	redis *redis.Client
}

var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{redis: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, rec *SessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKey(rec.SessionID), data, ttl).Err(); err != nil {
		logging.Error("Failed to store session in Redis", "session_id", rec.SessionID, "error", err)
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*SessionRecord, error) {
	val, err := s.redis.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec SessionRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &rec, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) MarkUsed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, usedTokenKey(tokenID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark token as used: %w", err)
	}
	return ok, nil
}
