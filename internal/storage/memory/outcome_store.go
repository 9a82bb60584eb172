package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AcquisitionOutcome // keyed by outcome_id
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		data: make(map[string]*domain.AcquisitionOutcome),
	}
}

// Verify interface compliance at compile time.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// Insert adds a new outcome. Returns ErrDuplicateKey if outcome_id exists.
func (s *OutcomeStore) Insert(_ context.Context, o *domain.AcquisitionOutcome) error {
	if o == nil || o.OutcomeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[o.OutcomeID]; exists {
		return storage.ErrDuplicateKey
	}

	outcomeCopy := *o
	s.data[o.OutcomeID] = &outcomeCopy
	return nil
}

// GetByMint retrieves all outcomes for a mint, ordered by timestamp ASC.
func (s *OutcomeStore) GetByMint(_ context.Context, mint string) ([]*domain.AcquisitionOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AcquisitionOutcome
	for _, o := range s.data {
		if o.Mint == mint {
			outcomeCopy := *o
			result = append(result, &outcomeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].OutcomeID < result[j].OutcomeID
	})

	return result, nil
}

// GetRecent retrieves up to limit outcomes, most recent first.
func (s *OutcomeStore) GetRecent(_ context.Context, limit int) ([]*domain.AcquisitionOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AcquisitionOutcome, 0, len(s.data))
	for _, o := range s.data {
		outcomeCopy := *o
		result = append(result, &outcomeCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp > result[j].Timestamp
		}
		return result[i].OutcomeID > result[j].OutcomeID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
