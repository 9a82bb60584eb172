package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func testOutcome(id, mint string, ts int64, success bool) *domain.AcquisitionOutcome {
	o := &domain.AcquisitionOutcome{
		OutcomeID: id,
		Mint:      mint,
		Success:   success,
		Timestamp: ts,
	}
	if success {
		o.SpentSOL = 0.5
		o.UnitsReceived = 1000
		o.Reference = "sig-" + id
	} else {
		o.Reason = domain.FailSecurityRejected
		o.Error = "risk gate rejected"
	}
	return o
}

func TestOutcomeStore_InsertAndGetByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testOutcome("out-2", "MintAAA", 2000, false)))
	require.NoError(t, store.Insert(ctx, testOutcome("out-1", "MintAAA", 1000, true)))
	require.NoError(t, store.Insert(ctx, testOutcome("out-3", "MintBBB", 1500, true)))

	got, err := store.GetByMint(ctx, "MintAAA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "out-1", got[0].OutcomeID)
	require.Equal(t, "out-2", got[1].OutcomeID)

	require.True(t, got[0].Success)
	require.Equal(t, 0.5, got[0].SpentSOL)
	require.Equal(t, "sig-out-1", got[0].Reference)

	require.False(t, got[1].Success)
	require.Equal(t, domain.FailSecurityRejected, got[1].Reason)
	require.Equal(t, "risk gate rejected", got[1].Error)
}

func TestOutcomeStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	o := testOutcome("out-1", "MintAAA", 1000, true)
	require.NoError(t, store.Insert(ctx, o))

	err := store.Insert(ctx, o)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOutcomeStore_GetRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testOutcome("out-1", "MintAAA", 1000, true)))
	require.NoError(t, store.Insert(ctx, testOutcome("out-2", "MintBBB", 2000, false)))
	require.NoError(t, store.Insert(ctx, testOutcome("out-3", "MintCCC", 3000, true)))

	got, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "out-3", got[0].OutcomeID)
	require.Equal(t, "out-2", got[1].OutcomeID)
}

func TestOutcomeStore_GetRecent_Empty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOutcomeStore(pool)

	got, err := store.GetRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, got)
}
