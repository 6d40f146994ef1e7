package cart

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
	cartKeyPattern = "user:cart:%s"
	cartKeyTTL     = 24 * time.Hour
)

// RedisStore persists carts in Redis as JSON.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStore initializes a Redis-backed cart store.
func NewRedisStore(client *redis.Client, log *slog.Logger) Store {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{client: client, log: log}
}

// Get returns the stored cart or ErrNotFound when absent.
func (s *RedisStore) Get(ctx context.Context, userID string) (*Cart, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get cart from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var cart Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		s.log.Error("failed to decode cart", "user_id", userID, "error", err)
		return nil, err
	}

	return &cart, nil
}

// Save stores the cart under a rolling TTL.
func (s *RedisStore) Save(ctx context.Context, cart *Cart) error {
	if cart == nil || cart.UserID == "" {
		return nil
	}
	cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cart)
	if err != nil {
		s.log.Error("failed to encode cart", "user_id", cart.UserID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, cartKey(cart.UserID), data, cartKeyTTL).Err(); err != nil {
		s.log.Error("failed to save cart in redis", "user_id", cart.UserID, "error", err)
		return err
	}

	return nil
}

// Delete removes the stored cart for the given user.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		s.log.Error("failed to delete cart", "user_id", userID, "error", err)
		return err
	}

	return nil
}

func cartKey(userID string) string {
	return fmt.Sprintf(cartKeyPattern, userID)
}
