// Package ledger owns the position lifecycle. Positions are opened from
// successful acquisition outcomes and closed exactly once by the exit
// evaluator.
package ledger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/idhash"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/storage"
)

// Ledger mediates all position mutations. Other components read and write
// positions only through it.
type Ledger struct {
	store  storage.PositionStore
	logger zerolog.Logger
}

// NewLedger creates a Ledger over the given store.
func NewLedger(store storage.PositionStore, logger zerolog.Logger) *Ledger {
	return &Ledger{store: store, logger: logger}
}

// Open creates an OPEN position from a successful acquisition outcome.
func (l *Ledger) Open(ctx context.Context, asset *domain.AssetDescriptor, outcome *domain.AcquisitionOutcome) (*domain.Position, error) {
	if !outcome.Success {
		return nil, fmt.Errorf("open position for %s: %w", asset.Mint, storage.ErrInvalidInput)
	}

	position := &domain.Position{
		PositionID:   idhash.ComputePositionID(asset.Mint, outcome.Timestamp),
		Mint:         asset.Mint,
		Units:        outcome.UnitsReceived,
		CostBasisSOL: outcome.SpentSOL,
		Status:       domain.PositionOpen,
		OpenedAt:     outcome.Timestamp,
	}

	if err := l.store.Insert(ctx, position); err != nil {
		return nil, fmt.Errorf("open position for %s: %w", asset.Mint, err)
	}

	observability.DefaultMetrics.PositionsOpen.Inc()
	l.logger.Info().
		Str("position_id", position.PositionID).
		Str("mint", position.Mint).
		Float64("units", position.Units).
		Float64("cost_basis_sol", position.CostBasisSOL).
		Msg("position opened")

	return position, nil
}

// Close transitions a position to CLOSED with its final valuation.
// The transition happens at most once; a second close fails with
// storage.ErrAlreadyClosed.
func (l *Ledger) Close(ctx context.Context, positionID string, closedAtMs int64, reason domain.ExitReason, finalValueSOL, pnlSOL, pnlPct float64) error {
	if err := l.store.MarkClosed(ctx, positionID, closedAtMs, reason, finalValueSOL, pnlSOL, pnlPct); err != nil {
		return fmt.Errorf("close position %s: %w", positionID, err)
	}

	observability.DefaultMetrics.PositionsOpen.Dec()
	observability.RecordExit(string(reason))
	l.logger.Info().
		Str("position_id", positionID).
		Str("reason", string(reason)).
		Float64("pnl_sol", pnlSOL).
		Float64("pnl_pct", pnlPct).
		Msg("position closed")

	return nil
}

// UpdateValuation stores the latest sweep valuation on an OPEN position.
func (l *Ledger) UpdateValuation(ctx context.Context, positionID string, currentValueSOL, pnlSOL, pnlPct float64) error {
	return l.store.UpdateValuation(ctx, positionID, currentValueSOL, pnlSOL, pnlPct)
}

// OpenPositions returns all OPEN positions, oldest first.
func (l *Ledger) OpenPositions(ctx context.Context) ([]*domain.Position, error) {
	return l.store.GetOpen(ctx)
}

// Position returns a single position by id.
func (l *Ledger) Position(ctx context.Context, positionID string) (*domain.Position, error) {
	return l.store.GetByID(ctx, positionID)
}

// AllPositions returns every position, open and closed.
func (l *Ledger) AllPositions(ctx context.Context) ([]*domain.Position, error) {
	return l.store.GetAll(ctx)
}
