// Package stats aggregates acquisition outcomes and realized profit for the
// reporting surface. The aggregator is a passive sink; it never initiates
// work of its own.
package stats

import (
	"sync"
	"time"

	"solana-sniper/internal/domain"
)

// recentWindow is how many outcomes the rolling activity window retains.
const recentWindow = 50

// Snapshot is an immutable view of aggregator state. Mutating a Snapshot
// has no effect on the aggregator.
type Snapshot struct {
	Attempts       int
	Successes      int
	Failures       int
	RealizedPnLSOL float64
	Recent         []*domain.AcquisitionOutcome // most recent first
	Uptime         time.Duration
}

// Aggregator maintains run counters and a rolling window of recent outcomes.
// Safe for concurrent use.
type Aggregator struct {
	mu sync.Mutex

	attempts  int
	successes int
	failures  int
	realized  float64
	recent    []*domain.AcquisitionOutcome // most recent first

	startedAt time.Time
	now       func() time.Time
}

// NewAggregator creates an Aggregator. A nil clock defaults to time.Now.
func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		now:       now,
		startedAt: now(),
	}
}

// Record counts one outcome and prepends it to the recent window.
// The oldest entry is dropped once the window is full.
func (a *Aggregator) Record(outcome *domain.AcquisitionOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.attempts++
	if outcome.Success {
		a.successes++
	} else {
		a.failures++
	}

	cp := *outcome
	a.recent = append([]*domain.AcquisitionOutcome{&cp}, a.recent...)
	if len(a.recent) > recentWindow {
		a.recent = a.recent[:recentWindow]
	}
}

// AddRealized adds a closed position's realized profit or loss.
func (a *Aggregator) AddRealized(pnlSOL float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.realized += pnlSOL
}

// Snapshot returns a deep copy of the current state. Callers may retain and
// mutate the result freely.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	recent := make([]*domain.AcquisitionOutcome, len(a.recent))
	for i, o := range a.recent {
		cp := *o
		recent[i] = &cp
	}

	return Snapshot{
		Attempts:       a.attempts,
		Successes:      a.successes,
		Failures:       a.failures,
		RealizedPnLSOL: a.realized,
		Recent:         recent,
		Uptime:         a.now().Sub(a.startedAt),
	}
}
