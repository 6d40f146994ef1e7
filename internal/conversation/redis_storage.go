package conversation

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
	convKeyPattern     = "user:conv:%s"
	convScanPattern    = "user:conv:*"
	convScanBatchCount = 100
	convKeyTTL         = 24 * time.Hour
)

// RedisStorage persists conversation records in Redis as JSON.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, log *slog.Logger) Storage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{client: client, log: log}
}

// Get returns the stored conversation or ErrNotFound when absent.
func (s *RedisStorage) Get(ctx context.Context, userID string) (*Conversation, error) {
	data, err := s.client.Get(ctx, convKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get conversation from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var conv Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		s.log.Error("failed to decode conversation", "user_id", userID, "error", err)
		return nil, err
	}

	return &conv, nil
}

// Save stores the record under a rolling TTL.
func (s *RedisStorage) Save(ctx context.Context, conv *Conversation) error {
	if conv == nil || conv.UserID == "" {
		return nil
	}
	conv.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(conv)
	if err != nil {
		s.log.Error("failed to encode conversation", "user_id", conv.UserID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, convKey(conv.UserID), data, convKeyTTL).Err(); err != nil {
		s.log.Error("failed to save conversation in redis", "user_id", conv.UserID, "error", err)
		return err
	}

	return nil
}

// Delete removes the stored record for the given user.
func (s *RedisStorage) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, convKey(userID)).Err(); err != nil {
		s.log.Error("failed to delete conversation", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// All retrieves every stored record by scanning Redis keys.
func (s *RedisStorage) All(ctx context.Context) ([]*Conversation, error) {
	var out []*Conversation

	var cursor uint64
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, convScanPattern, convScanBatchCount).Result()
		if err != nil {
			s.log.Error("conversation scan failed", "error", err)
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

			var conv Conversation
			if err := json.Unmarshal([]byte(data), &conv); err != nil {
				s.log.Warn("skipping undecodable conversation", "key", key, "error", err)
				continue
			}
			out = append(out, &conv)
		}

		if nextCursor == 0 {
			return out, nil
		}
		cursor = nextCursor
	}
}

func convKey(userID string) string {
	return fmt.Sprintf(convKeyPattern, userID)
}
