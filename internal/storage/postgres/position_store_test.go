package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func testPosition(id, mint string, openedAt int64) *domain.Position {
	return &domain.Position{
		PositionID:   id,
		Mint:         mint,
		Units:        1000,
		CostBasisSOL: 0.5,
		Status:       domain.PositionOpen,
		OpenedAt:     openedAt,
	}
}

func TestPositionStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	p := testPosition("pos-1", "MintAAA", 1000)
	require.NoError(t, store.Insert(ctx, p))

	got, err := store.GetByID(ctx, "pos-1")
	require.NoError(t, err)
	require.Equal(t, "pos-1", got.PositionID)
	require.Equal(t, "MintAAA", got.Mint)
	require.Equal(t, float64(1000), got.Units)
	require.Equal(t, 0.5, got.CostBasisSOL)
	require.Equal(t, domain.PositionOpen, got.Status)
	require.Nil(t, got.CurrentValueSOL)
	require.Nil(t, got.PnLSOL)
	require.Nil(t, got.PnLPct)
	require.Nil(t, got.ClosedAt)
}

func TestPositionStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	p := testPosition("pos-1", "MintAAA", 1000)
	require.NoError(t, store.Insert(ctx, p))

	err := store.Insert(ctx, p)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPositionStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)

	_, err := store.GetByID(context.Background(), "nonexistent")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPositionStore_GetOpen(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testPosition("pos-1", "MintAAA", 1000)))
	require.NoError(t, store.Insert(ctx, testPosition("pos-2", "MintBBB", 2000)))
	require.NoError(t, store.Insert(ctx, testPosition("pos-3", "MintCCC", 3000)))

	require.NoError(t, store.MarkClosed(ctx, "pos-2", 5000, domain.ExitTakeProfit, 1.0, 0.5, 100))

	open, err := store.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, "pos-1", open[0].PositionID)
	require.Equal(t, "pos-3", open[1].PositionID)
}

func TestPositionStore_GetByMint_Ordering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testPosition("pos-2", "MintAAA", 2000)))
	require.NoError(t, store.Insert(ctx, testPosition("pos-1", "MintAAA", 1000)))
	require.NoError(t, store.Insert(ctx, testPosition("pos-3", "MintBBB", 1500)))

	got, err := store.GetByMint(ctx, "MintAAA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "pos-1", got[0].PositionID)
	require.Equal(t, "pos-2", got[1].PositionID)
}

func TestPositionStore_UpdateValuation(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testPosition("pos-1", "MintAAA", 1000)))
	require.NoError(t, store.UpdateValuation(ctx, "pos-1", 1.0, 0.5, 100))

	got, err := store.GetByID(ctx, "pos-1")
	require.NoError(t, err)
	require.NotNil(t, got.CurrentValueSOL)
	require.Equal(t, 1.0, *got.CurrentValueSOL)
	require.NotNil(t, got.PnLSOL)
	require.Equal(t, 0.5, *got.PnLSOL)
	require.NotNil(t, got.PnLPct)
	require.Equal(t, float64(100), *got.PnLPct)
	require.Equal(t, domain.PositionOpen, got.Status)
}

func TestPositionStore_UpdateValuation_Errors(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	err := store.UpdateValuation(ctx, "nonexistent", 1.0, 0, 0)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Insert(ctx, testPosition("pos-1", "MintAAA", 1000)))
	require.NoError(t, store.MarkClosed(ctx, "pos-1", 5000, domain.ExitStopLoss, 0.2, -0.3, -60))

	err = store.UpdateValuation(ctx, "pos-1", 1.0, 0.5, 100)
	require.ErrorIs(t, err, storage.ErrAlreadyClosed)
}

func TestPositionStore_MarkClosed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testPosition("pos-1", "MintAAA", 1000)))
	require.NoError(t, store.MarkClosed(ctx, "pos-1", 5000, domain.ExitTakeProfit, 1.2, 0.7, 140))

	got, err := store.GetByID(ctx, "pos-1")
	require.NoError(t, err)
	require.Equal(t, domain.PositionClosed, got.Status)
	require.Equal(t, domain.ExitTakeProfit, got.ExitReason)
	require.NotNil(t, got.ClosedAt)
	require.Equal(t, int64(5000), *got.ClosedAt)
	require.NotNil(t, got.CurrentValueSOL)
	require.Equal(t, 1.2, *got.CurrentValueSOL)
}

func TestPositionStore_MarkClosed_Once(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPositionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testPosition("pos-1", "MintAAA", 1000)))
	require.NoError(t, store.MarkClosed(ctx, "pos-1", 5000, domain.ExitTakeProfit, 1.2, 0.7, 140))

	// Second close must not overwrite the first.
	err := store.MarkClosed(ctx, "pos-1", 9000, domain.ExitStopLoss, 0.1, -0.4, -80)
	require.Error(t, err)
	require.True(t, errors.Is(err, storage.ErrAlreadyClosed))

	got, err := store.GetByID(ctx, "pos-1")
	require.NoError(t, err)
	require.Equal(t, domain.ExitTakeProfit, got.ExitReason)
	require.Equal(t, int64(5000), *got.ClosedAt)
}
