package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	position_id, mint, units, cost_basis_sol, current_value_sol,
	pnl_sol, pnl_pct, status, exit_reason, opened_at, closed_at
`

// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	query := `
		INSERT INTO positions (
			position_id, mint, units, cost_basis_sol, status, opened_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PositionID,
		p.Mint,
		p.Units,
		p.CostBasisSOL,
		string(p.Status),
		p.OpenedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, positionID string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE position_id = $1`

	row := s.pool.QueryRow(ctx, query, positionID)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// GetByMint retrieves all positions for a mint, ordered by opened_at ASC.
func (s *PositionStore) GetByMint(ctx context.Context, mint string) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE mint = $1
		ORDER BY opened_at ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get positions by mint: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetOpen retrieves all OPEN positions, ordered by opened_at ASC.
func (s *PositionStore) GetOpen(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE status = 'OPEN'
		ORDER BY opened_at ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetAll retrieves all positions, ordered by opened_at ASC.
func (s *PositionStore) GetAll(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		ORDER BY opened_at ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// UpdateValuation stores the latest sweep valuation for an OPEN position.
func (s *PositionStore) UpdateValuation(ctx context.Context, positionID string, currentValueSOL, pnlSOL, pnlPct float64) error {
	query := `
		UPDATE positions
		SET current_value_sol = $2, pnl_sol = $3, pnl_pct = $4
		WHERE position_id = $1 AND status = 'OPEN'
	`

	tag, err := s.pool.Exec(ctx, query, positionID, currentValueSOL, pnlSOL, pnlPct)
	if err != nil {
		return fmt.Errorf("update valuation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyMissedUpdate(ctx, positionID)
	}
	return nil
}

// MarkClosed transitions a position OPEN -> CLOSED with its final valuation.
// The status guard in the WHERE clause makes the transition happen at most once.
func (s *PositionStore) MarkClosed(ctx context.Context, positionID string, closedAtMs int64, reason domain.ExitReason, currentValueSOL, pnlSOL, pnlPct float64) error {
	query := `
		UPDATE positions
		SET status = 'CLOSED', closed_at = $2, exit_reason = $3,
		    current_value_sol = $4, pnl_sol = $5, pnl_pct = $6
		WHERE position_id = $1 AND status = 'OPEN'
	`

	tag, err := s.pool.Exec(ctx, query,
		positionID, closedAtMs, string(reason), currentValueSOL, pnlSOL, pnlPct)
	if err != nil {
		return fmt.Errorf("mark position closed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyMissedUpdate(ctx, positionID)
	}
	return nil
}

// classifyMissedUpdate distinguishes a missing position from an already
// closed one after a zero-row update.
func (s *PositionStore) classifyMissedUpdate(ctx context.Context, positionID string) error {
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM positions WHERE position_id = $1`, positionID).Scan(&status)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check position status: %w", err)
	}
	if status == string(domain.PositionClosed) {
		return storage.ErrAlreadyClosed
	}
	return storage.ErrNotFound
}

// scanPosition scans a single row into a Position.
func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position
	var statusStr string
	var exitReason *string

	err := row.Scan(
		&p.PositionID,
		&p.Mint,
		&p.Units,
		&p.CostBasisSOL,
		&p.CurrentValueSOL,
		&p.PnLSOL,
		&p.PnLPct,
		&statusStr,
		&exitReason,
		&p.OpenedAt,
		&p.ClosedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = domain.PositionStatus(statusStr)
	if exitReason != nil {
		p.ExitReason = domain.ExitReason(*exitReason)
	}
	return &p, nil
}

// scanPositions scans multiple rows into a slice of Position.
func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var positions []*domain.Position

	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}

	return positions, nil
}
