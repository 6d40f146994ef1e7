package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPattern     = "user:session:%s"
	sessionScanPattern    = "user:session:*"
	sessionScanBatchCount = 100
	sessionKeyTTL         = 24 * time.Hour
)

// RedisStore persists sessions in Redis as JSON.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStore initializes a Redis-backed session store.
func NewRedisStore(client *redis.Client, log *slog.Logger) Store {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{client: client, log: log}
}

// Get returns the stored session or ErrNotFound when absent.
func (s *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get session from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		s.log.Error("failed to decode session", "user_id", userID, "error", err)
		return nil, err
	}

	return &sess, nil
}

// Save stores the session under a rolling TTL. The key TTL is a safety
// net; the real expiry policy lives in the manager and monitor.
func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.UserID == "" {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		s.log.Error("failed to encode session", "user_id", session.UserID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, sessionKey(session.UserID), data, sessionKeyTTL).Err(); err != nil {
		s.log.Error("failed to save session in redis", "user_id", session.UserID, "error", err)
		return err
	}

	return nil
}

// Delete removes the stored session for the given user.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		s.log.Error("failed to delete session", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// All retrieves every stored session by scanning Redis keys.
func (s *RedisStore) All(ctx context.Context) ([]*Session, error) {
	var out []*Session

	var cursor uint64
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, sessionScanPattern, sessionScanBatchCount).Result()
		if err != nil {
			s.log.Error("session scan failed", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return nil, err
			}

			var sess Session
			if err := json.Unmarshal([]byte(data), &sess); err != nil {
				s.log.Warn("skipping undecodable session", "key", key, "error", err)
				continue
			}
			out = append(out, &sess)
		}

		if nextCursor == 0 {
			return out, nil
		}
		cursor = nextCursor
	}
}

func sessionKey(userID string) string {
	return fmt.Sprintf(sessionKeyPattern, userID)
}
