package conversation

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frutalia/ventabot/internal/domain"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisStorage_SaveAndGet(t *testing.T) {
	storage := NewRedisStorage(setupTestRedis(t), testLogger())
	ctx := context.Background()

	conv := &Conversation{
		UserID:   "+56911111111",
		State:    StateOrderResolvingAmbiguous,
		Customer: &domain.Customer{ID: "c1", Name: "Ana Pérez"},
		Order: &OrderScratch{
			Options: map[int]AmbiguousOption{
				1: {
					RequestedName:     "te",
					RequestedQuantity: 2,
					Product:           domain.Product{ID: "p9", Name: "Té verde", UnitPrice: 3500, Stock: 8},
				},
			},
		},
	}
	require.NoError(t, storage.Save(ctx, conv))

	got, err := storage.Get(ctx, conv.UserID)
	require.NoError(t, err)
	assert.Equal(t, StateOrderResolvingAmbiguous, got.State)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "c1", got.Customer.ID)
	require.NotNil(t, got.Order)
	require.Contains(t, got.Order.Options, 1)
	assert.Equal(t, 2, got.Order.Options[1].RequestedQuantity)
	assert.Equal(t, "Té verde", got.Order.Options[1].Product.Name)
}

func TestRedisStorage_GetNotFound(t *testing.T) {
	storage := NewRedisStorage(setupTestRedis(t), testLogger())

	_, err := storage.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_DeleteAndAll(t *testing.T) {
	storage := NewRedisStorage(setupTestRedis(t), testLogger())
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, &Conversation{UserID: "u1", State: StateMenu}))
	require.NoError(t, storage.Save(ctx, &Conversation{UserID: "u2", State: StateFAQ}))

	all, err := storage.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, storage.Delete(ctx, "u1"))
	_, err = storage.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err = storage.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, "u2", all[0].UserID)
}
