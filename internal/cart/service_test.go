package cart

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frutalia/ventabot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubSessionChecker struct {
	expired bool
}

func (s *stubSessionChecker) IsExpired(ctx context.Context, userID string) bool {
	return s.expired
}

func newTestService(expired bool) *Service {
	return NewService(NewMemoryStore(), &stubSessionChecker{expired: expired}, testLogger())
}

var almonds = domain.Product{
	ID:        "p1",
	Name:      "Almendras",
	UnitPrice: 1000,
	BulkPrice: 800,
	Stock:     10,
}

func TestService_AddAppliesUnitPriceBelowThreshold(t *testing.T) {
	svc := newTestService(false)
	ctx := context.Background()

	line, totals, err := svc.Add(ctx, "u1", almonds, 4)
	require.NoError(t, err)

	assert.Equal(t, 4, line.Quantity)
	assert.Equal(t, int64(1000), line.AppliedPrice)
	assert.Equal(t, int64(4000), line.LineTotal)
	assert.False(t, line.BulkApplied)
	assert.Equal(t, int64(4000), totals.Total)
	assert.Equal(t, int64(0), totals.Discount)
}

func TestService_AddAppliesBulkPriceAtThreshold(t *testing.T) {
	svc := newTestService(false)
	ctx := context.Background()

	line, totals, err := svc.Add(ctx, "u1", almonds, BulkThreshold)
	require.NoError(t, err)

	assert.Equal(t, int64(800), line.AppliedPrice)
	assert.Equal(t, int64(4000), line.LineTotal)
	assert.True(t, line.BulkApplied)
	assert.Equal(t, int64(5000), totals.Subtotal)
	assert.Equal(t, int64(1000), totals.Discount)
	assert.Equal(t, int64(4000), totals.Total)
}

func TestService_MergeCrossesBulkThreshold(t *testing.T) {
	svc := newTestService(false)
	ctx := context.Background()

	_, _, err := svc.Add(ctx, "u1", almonds, 3)
	require.NoError(t, err)

	line, _, err := svc.Add(ctx, "u1", almonds, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.BulkApplied)
	assert.Equal(t, int64(4000), line.LineTotal)
}

func TestService_BulkIgnoredWhenNotCheaper(t *testing.T) {
	svc := newTestService(false)
	ctx := context.Background()

	noBulk := almonds
	noBulk.ID = "p2"
	noBulk.BulkPrice = 0
	line, _, err := svc.Add(ctx, "u1", noBulk, 6)
	require.NoError(t, err)
	assert.False(t, line.BulkApplied)
	assert.Equal(t, int64(6000), line.LineTotal)

	pricier := almonds
	pricier.ID = "p3"
	pricier.BulkPrice = 1200
	line, _, err = svc.Add(ctx, "u1", pricier, 6)
	require.NoError(t, err)
	assert.False(t, line.BulkApplied)
	assert.Equal(t, int64(6000), line.LineTotal)
}

func TestService_AddRejectsOverStock(t *testing.T) {
	svc := newTestService(false)
	ctx := context.Background()

	small := almonds
	small.Stock = 5

	_, _, err := svc.Add(ctx, "u1", small, 3)
	require.NoError(t, err)

	_, _, err = svc.Add(ctx, "u1", small, 3)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.InCart)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)

	// the rejected add must not change the cart
	c, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
}

func TestService_AddRejectsNonPositiveQuantity(t *testing.T) {
	svc := newTestService(false)
	ctx := context.Background()

	_, _, err := svc.Add(ctx, "u1", almonds, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, err = svc.Add(ctx, "u1", almonds, -2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestService_UpdateQuantity(t *testing.T) {
	svc := newTestService(false)
	ctx := context.Background()

	_, _, err := svc.Add(ctx, "u1", almonds, 2)
	require.NoError(t, err)

	line, totals, err := svc.UpdateQuantity(ctx, "u1", almonds.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, line.Quantity)
	assert.True(t, line.BulkApplied)
	assert.Equal(t, int64(5600), totals.Total)

	_, _, err = svc.UpdateQuantity(ctx, "u1", almonds.ID, 11)
	var stockErr *StockError
	assert.ErrorAs(t, err, &stockErr)

	_, _, err = svc.UpdateQuantity(ctx, "u1", "missing", 1)
	assert.ErrorIs(t, err, ErrNotInCart)
}

func TestService_Remove(t *testing.T) {
	svc := newTestService(false)
	ctx := context.Background()

	_, _, err := svc.Add(ctx, "u1", almonds, 2)
	require.NoError(t, err)

	removed, totals, err := svc.Remove(ctx, "u1", almonds.ID)
	require.NoError(t, err)
	assert.Equal(t, almonds.ID, removed.ProductID)
	assert.Equal(t, int64(0), totals.Total)
	assert.False(t, svc.HasItems(ctx, "u1"))

	_, _, err = svc.Remove(ctx, "u1", almonds.ID)
	assert.ErrorIs(t, err, ErrNotInCart)
}

func TestService_GetClearsExpiredCart(t *testing.T) {
	store := NewMemoryStore()
	checker := &stubSessionChecker{}
	svc := NewService(store, checker, testLogger())
	ctx := context.Background()

	_, _, err := svc.Add(ctx, "u1", almonds, 2)
	require.NoError(t, err)

	checker.expired = true

	c, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Lines)

	// underlying record is gone, not just hidden
	_, err = store.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_TotalsIdempotent(t *testing.T) {
	svc := newTestService(false)
	ctx := context.Background()

	_, _, err := svc.Add(ctx, "u1", almonds, 6)
	require.NoError(t, err)

	first, err := svc.Totals(ctx, "u1")
	require.NoError(t, err)
	second, err := svc.Totals(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, first.LineCount)
	assert.Equal(t, 6, first.UnitCount)
	assert.Equal(t, 1, first.DiscountedLineCount)
}
