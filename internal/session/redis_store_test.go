package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t), testLogger())
	ctx := context.Background()

	sess := &Session{
		UserID:         "+56911111111",
		CreatedAt:      time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC),
		LastActivityAt: time.Date(2026, 8, 28, 11, 5, 0, 0, time.UTC),
		WarningSent:    true,
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.True(t, got.LastActivityAt.Equal(sess.LastActivityAt))
	assert.True(t, got.WarningSent)
	assert.False(t, got.ExpiryNoticeSent)
}

func TestRedisStore_GetNotFound(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t), testLogger())

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{UserID: "u1", LastActivityAt: time.Now()}))
	require.NoError(t, store.Delete(ctx, "u1"))

	_, err := store.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting again is a no-op
	assert.NoError(t, store.Delete(ctx, "u1"))
}

func TestRedisStore_All(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t), testLogger())
	ctx := context.Background()

	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, store.Save(ctx, &Session{UserID: id, LastActivityAt: time.Now()}))
	}

	sessions, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)

	seen := map[string]bool{}
	for _, s := range sessions {
		seen[s.UserID] = true
	}
	assert.True(t, seen["u1"] && seen["u2"] && seen["u3"])
}
