package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using PostgreSQL.
type OutcomeStore struct {
	pool *Pool
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(pool *Pool) *OutcomeStore {
	return &OutcomeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

const outcomeColumns = `
	outcome_id, mint, success, spent_sol, units_received,
	reference, reason, error_text, timestamp_ms
`

// Insert adds a new outcome. Returns ErrDuplicateKey if outcome_id exists.
func (s *OutcomeStore) Insert(ctx context.Context, o *domain.AcquisitionOutcome) error {
	query := `
		INSERT INTO acquisition_outcomes (
			outcome_id, mint, success, spent_sol, units_received,
			reference, reason, error_text, timestamp_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		o.OutcomeID,
		o.Mint,
		o.Success,
		o.SpentSOL,
		o.UnitsReceived,
		o.Reference,
		string(o.Reason),
		o.Error,
		o.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// GetByMint retrieves all outcomes for a mint, ordered by timestamp ASC.
func (s *OutcomeStore) GetByMint(ctx context.Context, mint string) ([]*domain.AcquisitionOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM acquisition_outcomes
		WHERE mint = $1
		ORDER BY timestamp_ms ASC, outcome_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get outcomes by mint: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// GetRecent retrieves up to limit outcomes, most recent first.
func (s *OutcomeStore) GetRecent(ctx context.Context, limit int) ([]*domain.AcquisitionOutcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM acquisition_outcomes
		ORDER BY timestamp_ms DESC, outcome_id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent outcomes: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// scanOutcomes scans multiple rows into a slice of AcquisitionOutcome.
func scanOutcomes(rows pgx.Rows) ([]*domain.AcquisitionOutcome, error) {
	var outcomes []*domain.AcquisitionOutcome

	for rows.Next() {
		var o domain.AcquisitionOutcome
		var reasonStr string

		err := rows.Scan(
			&o.OutcomeID,
			&o.Mint,
			&o.Success,
			&o.SpentSOL,
			&o.UnitsReceived,
			&o.Reference,
			&reasonStr,
			&o.Error,
			&o.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}

		o.Reason = domain.FailReason(reasonStr)
		outcomes = append(outcomes, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome rows: %w", err)
	}

	return outcomes, nil
}
