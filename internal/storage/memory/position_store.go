package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by position_id
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Verify interface compliance at compile time.
var _ storage.PositionStore = (*PositionStore)(nil)

// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.PositionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PositionID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	positionCopy := *p
	s.data[p.PositionID] = &positionCopy
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(_ context.Context, positionID string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[positionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	positionCopy := *p
	return &positionCopy, nil
}

// GetByMint retrieves all positions for a mint, ordered by opened_at ASC.
func (s *PositionStore) GetByMint(_ context.Context, mint string) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.Mint == mint {
			positionCopy := *p
			result = append(result, &positionCopy)
		}
	}

	sortPositions(result)
	return result, nil
}

// GetOpen retrieves all OPEN positions, ordered by opened_at ASC.
func (s *PositionStore) GetOpen(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.Status == domain.PositionOpen {
			positionCopy := *p
			result = append(result, &positionCopy)
		}
	}

	sortPositions(result)
	return result, nil
}

// GetAll retrieves all positions, ordered by opened_at ASC.
func (s *PositionStore) GetAll(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Position, 0, len(s.data))
	for _, p := range s.data {
		positionCopy := *p
		result = append(result, &positionCopy)
	}

	sortPositions(result)
	return result, nil
}

// UpdateValuation stores the latest sweep valuation for an OPEN position.
func (s *PositionStore) UpdateValuation(_ context.Context, positionID string, currentValueSOL, pnlSOL, pnlPct float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[positionID]
	if !exists {
		return storage.ErrNotFound
	}
	if p.Status == domain.PositionClosed {
		return storage.ErrAlreadyClosed
	}

	p.CurrentValueSOL = &currentValueSOL
	p.PnLSOL = &pnlSOL
	p.PnLPct = &pnlPct
	return nil
}

// MarkClosed transitions a position OPEN -> CLOSED with its final valuation.
func (s *PositionStore) MarkClosed(_ context.Context, positionID string, closedAtMs int64, reason domain.ExitReason, currentValueSOL, pnlSOL, pnlPct float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[positionID]
	if !exists {
		return storage.ErrNotFound
	}
	if p.Status == domain.PositionClosed {
		return storage.ErrAlreadyClosed
	}

	p.Status = domain.PositionClosed
	p.ExitReason = reason
	p.ClosedAt = &closedAtMs
	p.CurrentValueSOL = &currentValueSOL
	p.PnLSOL = &pnlSOL
	p.PnLPct = &pnlPct
	return nil
}

func sortPositions(positions []*domain.Position) {
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].OpenedAt != positions[j].OpenedAt {
			return positions[i].OpenedAt < positions[j].OpenedAt
		}
		return positions[i].PositionID < positions[j].PositionID
	})
}
