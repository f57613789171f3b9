package cart_test

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newCartService(t *testing.T) (*cart.Service, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.PutProduct(domain.Product{ID: "p-food", Name: "Cat food", Status: domain.ProductStatusAvailable, PriceMinor: 100, Stock: 5})
	store.PutProduct(domain.Product{
		ID: "p-toy", Name: "Mouse toy", Status: domain.ProductStatusAvailable,
		PriceMinor: 200, PromoPriceMinor: domain.PromoPrice(150), Stock: 10,
	})
	store.PutProduct(domain.Product{ID: "p-old", Name: "Old collar", Status: domain.ProductStatusDiscontinued, PriceMinor: 50, Stock: 3})

	m := metrics.NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())
	return cart.NewService(store, nil, m, nil), store
}

func TestService_GetOrCreateIsIdempotent(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "u-1")
	require.NoError(t, err)
	require.NotEmpty(t, first.CartID)
	assert.Empty(t, first.Lines)

	second, err := svc.GetOrCreate(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, first.CartID, second.CartID)

	_, err = svc.GetOrCreate(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrOwnerRequired)
}

func TestService_AddLineMergesQuantities(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	_, err := svc.AddLine(ctx, "u-1", "p-food", 2)
	require.NoError(t, err)
	snapshot, err := svc.AddLine(ctx, "u-1", "p-food", 3)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, int32(5), snapshot.Lines[0].Qty)
	assert.Equal(t, int64(500), snapshot.SubtotalMinor)
	assert.Equal(t, int32(5), snapshot.TotalQty)
	assert.Equal(t, 1, snapshot.LineCount)
	assert.True(t, snapshot.Lines[0].InStock)
}

func TestService_AddLineUsesPromotionPrice(t *testing.T) {
	svc, _ := newCartService(t)

	snapshot, err := svc.AddLine(context.Background(), "u-1", "p-toy", 2)
	require.NoError(t, err)

	require.Len(t, snapshot.Lines, 1)
	line := snapshot.Lines[0]
	assert.True(t, line.OnPromotion)
	assert.Equal(t, int64(150), line.UnitPriceMinor)
	assert.Equal(t, int64(300), line.LineTotalMinor)
	assert.Equal(t, "Mouse toy", line.ProductName)
}

func TestService_AddLineRejections(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	_, err := svc.AddLine(ctx, "u-1", "p-food", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.AddLine(ctx, "u-1", "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.AddLine(ctx, "u-1", "p-old", 1)
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.AddLine(ctx, "u-1", "p-food", 4)
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, "u-1", "p-food", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "only 5 available")

	count, err := svc.Count(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int32(4), count, "rejected add must leave the cart untouched")
}

func TestService_UpdateLine(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	snapshot, err := svc.AddLine(ctx, "u-1", "p-food", 1)
	require.NoError(t, err)
	lineID := snapshot.Lines[0].LineID

	snapshot, err = svc.UpdateLine(ctx, "u-1", lineID, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(3), snapshot.Lines[0].Qty)

	_, err = svc.UpdateLine(ctx, "u-1", lineID, 0)
	assert.ErrorIs(t, err, domain.ErrQtyInvalid)

	_, err = svc.UpdateLine(ctx, "u-1", lineID, 6)
	conflict, ok := domain.AsStockConflict(err)
	require.True(t, ok)
	assert.Equal(t, int32(5), conflict.Available)

	_, err = svc.UpdateLine(ctx, "u-1", "missing", 1)
	assert.ErrorIs(t, err, domain.ErrCartLineNotFound)
}

func TestService_AddLineMergeNeverOverflows(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	_, err := svc.AddLine(ctx, "u-1", "p-food", 1)
	require.NoError(t, err)

	_, err = svc.AddLine(ctx, "u-1", "p-food", math.MaxInt32)
	require.ErrorIs(t, err, domain.ErrConflict)
	conflict, ok := domain.AsStockConflict(err)
	require.True(t, ok)
	assert.Equal(t, int32(5), conflict.Available)

	snapshot, err := svc.GetOrCreate(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, int32(1), snapshot.Lines[0].Qty)
	assert.Equal(t, int64(100), snapshot.SubtotalMinor)
}

func TestService_UpdateLineWithoutCart(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	_, err := svc.UpdateLine(ctx, "u-none", "no-such-line", 2)
	require.ErrorIs(t, err, domain.ErrCartLineNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := svc.Count(ctx, "u-none")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_RemoveAndClear(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	snapshot, err := svc.RemoveLine(ctx, "nobody", "line-x")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)

	snapshot, err = svc.Clear(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)

	_, err = svc.AddLine(ctx, "u-1", "p-food", 1)
	require.NoError(t, err)
	snapshot, err = svc.AddLine(ctx, "u-1", "p-toy", 1)
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 2)

	_, err = svc.RemoveLine(ctx, "u-1", "missing")
	assert.ErrorIs(t, err, domain.ErrCartLineNotFound)

	snapshot, err = svc.RemoveLine(ctx, "u-1", snapshot.Lines[0].LineID)
	require.NoError(t, err)
	assert.Len(t, snapshot.Lines, 1)

	snapshot, err = svc.Clear(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)
	assert.NotEmpty(t, snapshot.CartID, "cart persists after being emptied")

	snapshot, err = svc.RemoveLine(ctx, "u-1", "anything")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lines)
}

func TestService_CountWithoutCart(t *testing.T) {
	svc, _ := newCartService(t)

	count, err := svc.Count(context.Background(), "u-new")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_CartNeverReservesStock(t *testing.T) {
	svc, store := newCartService(t)

	_, err := svc.AddLine(context.Background(), "u-1", "p-food", 5)
	require.NoError(t, err)

	product, ok := store.Product("p-food")
	require.True(t, ok)
	assert.Equal(t, int32(5), product.Stock)
	assert.Zero(t, product.Sold)
}
