package memory

import (
	"context"
	"errors"
	"testing"

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

func TestPositionStore_InsertDuplicate(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	p := testPosition("pos1", "MintA", 1000)
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := store.Insert(ctx, p)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPositionStore_GetOpen(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testPosition("pos1", "MintA", 2000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testPosition("pos2", "MintB", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.MarkClosed(ctx, "pos1", 3000, domain.ExitTakeProfit, 1.0, 0.5, 100); err != nil {
		t.Fatalf("MarkClosed failed: %v", err)
	}

	open, err := store.GetOpen(ctx)
	if err != nil {
		t.Fatalf("GetOpen failed: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(open))
	}
	if open[0].PositionID != "pos2" {
		t.Errorf("expected pos2, got %s", open[0].PositionID)
	}
}

func TestPositionStore_MarkClosedOnce(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testPosition("pos1", "MintA", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.MarkClosed(ctx, "pos1", 2000, domain.ExitStopLoss, 0.2, -0.3, -60); err != nil {
		t.Fatalf("first MarkClosed failed: %v", err)
	}

	err := store.MarkClosed(ctx, "pos1", 3000, domain.ExitTakeProfit, 2.0, 1.5, 300)
	if !errors.Is(err, storage.ErrAlreadyClosed) {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}

	// The first close must stick.
	p, err := store.GetByID(ctx, "pos1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if p.ExitReason != domain.ExitStopLoss {
		t.Errorf("expected STOP_LOSS exit reason preserved, got %s", p.ExitReason)
	}
	if p.ClosedAt == nil || *p.ClosedAt != 2000 {
		t.Errorf("expected closed_at 2000 preserved, got %v", p.ClosedAt)
	}
}

func TestPositionStore_UpdateValuationClosed(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testPosition("pos1", "MintA", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.UpdateValuation(ctx, "pos1", 0.6, 0.1, 20); err != nil {
		t.Fatalf("UpdateValuation failed: %v", err)
	}
	if err := store.MarkClosed(ctx, "pos1", 2000, domain.ExitTakeProfit, 1.0, 0.5, 100); err != nil {
		t.Fatalf("MarkClosed failed: %v", err)
	}

	err := store.UpdateValuation(ctx, "pos1", 9.0, 8.5, 1700)
	if !errors.Is(err, storage.ErrAlreadyClosed) {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestPositionStore_ReturnsCopies(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testPosition("pos1", "MintA", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	p, _ := store.GetByID(ctx, "pos1")
	p.CostBasisSOL = 999

	p2, _ := store.GetByID(ctx, "pos1")
	if p2.CostBasisSOL != 0.5 {
		t.Error("store must not expose internal state to mutation")
	}
}
