package watch

import (
	"sync"

	"solana-sniper/internal/domain"
)

// ChanSource is a Source fed by hand. Used in tests and offline runs.
type ChanSource struct {
	ch     chan *domain.AssetDescriptor
	mu     sync.Mutex
	closed bool
}

// NewChanSource creates a ChanSource with the given buffer size.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{ch: make(chan *domain.AssetDescriptor, buffer)}
}

// Compile-time interface check.
var _ Source = (*ChanSource)(nil)

// Emit pushes one asset to consumers. Returns false after Close.
func (s *ChanSource) Emit(asset *domain.AssetDescriptor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.ch <- asset
	return true
}

// Assets returns the event channel.
func (s *ChanSource) Assets() <-chan *domain.AssetDescriptor {
	return s.ch
}

// Close closes the event channel.
func (s *ChanSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}
