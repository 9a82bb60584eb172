package storage

import (
	"context"

	"solana-sniper/internal/domain"
)

// PositionStore provides access to position storage.
// Implementations must make Insert, UpdateValuation and MarkClosed
// linearizable with respect to the Get* reads.
type PositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
	Insert(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, positionID string) (*domain.Position, error)

	// GetByMint retrieves all positions for a mint, ordered by opened_at ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.Position, error)

	// GetOpen retrieves all OPEN positions, ordered by opened_at ASC.
	GetOpen(ctx context.Context) ([]*domain.Position, error)

	// GetAll retrieves all positions, ordered by opened_at ASC.
	GetAll(ctx context.Context) ([]*domain.Position, error)

	// UpdateValuation stores the latest sweep valuation for an OPEN position.
	// Returns ErrNotFound if the position does not exist and ErrAlreadyClosed
	// if it has already been closed.
	UpdateValuation(ctx context.Context, positionID string, currentValueSOL, pnlSOL, pnlPct float64) error

	// MarkClosed transitions a position OPEN -> CLOSED with its final valuation.
	// Returns ErrNotFound if the position does not exist and ErrAlreadyClosed
	// if it was closed before; the transition happens at most once.
	MarkClosed(ctx context.Context, positionID string, closedAtMs int64, reason domain.ExitReason, currentValueSOL, pnlSOL, pnlPct float64) error
}

// OutcomeStore provides access to acquisition outcome storage.
type OutcomeStore interface {
	// Insert adds a new outcome. Returns ErrDuplicateKey if outcome_id exists.
	Insert(ctx context.Context, o *domain.AcquisitionOutcome) error

	// GetByMint retrieves all outcomes for a mint, ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.AcquisitionOutcome, error)

	// GetRecent retrieves up to limit outcomes, most recent first.
	GetRecent(ctx context.Context, limit int) ([]*domain.AcquisitionOutcome, error)
}

// OutcomeArchive is an append-only analytics sink for outcomes.
// Backed by ClickHouse in production; duplicates are not enforced.
type OutcomeArchive interface {
	// InsertBulk appends a batch of outcomes to the archive.
	InsertBulk(ctx context.Context, outcomes []*domain.AcquisitionOutcome) error

	// GetByMint retrieves archived outcomes for a mint, ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.AcquisitionOutcome, error)
}
