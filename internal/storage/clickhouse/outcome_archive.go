package clickhouse

import (
	"context"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// OutcomeArchive implements storage.OutcomeArchive using ClickHouse.
// Append-only; MergeTree does not enforce uniqueness and the archive
// does not need it.
type OutcomeArchive struct {
	conn *Conn
}

// NewOutcomeArchive creates a new OutcomeArchive.
func NewOutcomeArchive(conn *Conn) *OutcomeArchive {
	return &OutcomeArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.OutcomeArchive = (*OutcomeArchive)(nil)

// InsertBulk appends a batch of outcomes to the archive.
func (s *OutcomeArchive) InsertBulk(ctx context.Context, outcomes []*domain.AcquisitionOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO outcome_archive (
			outcome_id, mint, success, spent_sol, units_received,
			reference, reason, error_text, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range outcomes {
		success := uint8(0)
		if o.Success {
			success = 1
		}
		err = batch.Append(
			o.OutcomeID, o.Mint, success, o.SpentSOL, o.UnitsReceived,
			o.Reference, string(o.Reason), o.Error, uint64(o.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMint retrieves archived outcomes for a mint, ordered by timestamp ASC.
func (s *OutcomeArchive) GetByMint(ctx context.Context, mint string) ([]*domain.AcquisitionOutcome, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT outcome_id, mint, success, spent_sol, units_received,
		       reference, reason, error_text, timestamp_ms
		FROM outcome_archive
		WHERE mint = ?
		ORDER BY timestamp_ms ASC
	`, mint)
	if err != nil {
		return nil, fmt.Errorf("query outcome archive: %w", err)
	}
	defer rows.Close()

	var outcomes []*domain.AcquisitionOutcome
	for rows.Next() {
		var o domain.AcquisitionOutcome
		var success uint8
		var reasonStr string
		var timestamp uint64

		err := rows.Scan(
			&o.OutcomeID, &o.Mint, &success, &o.SpentSOL, &o.UnitsReceived,
			&o.Reference, &reasonStr, &o.Error, &timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}

		o.Success = success == 1
		o.Reason = domain.FailReason(reasonStr)
		o.Timestamp = int64(timestamp)
		outcomes = append(outcomes, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive rows: %w", err)
	}

	return outcomes, nil
}
