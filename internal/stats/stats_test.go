package stats

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"solana-sniper/internal/domain"
)

func outcome(id string, success bool) *domain.AcquisitionOutcome {
	return &domain.AcquisitionOutcome{
		OutcomeID: id,
		Mint:      "Mint" + id,
		Success:   success,
		Timestamp: 1000,
	}
}

func TestAggregator_Counters(t *testing.T) {
	agg := NewAggregator(nil)

	agg.Record(outcome("a", true))
	agg.Record(outcome("b", false))
	agg.Record(outcome("c", true))

	snap := agg.Snapshot()
	if snap.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", snap.Attempts)
	}
	if snap.Successes != 2 {
		t.Errorf("Successes = %d, want 2", snap.Successes)
	}
	if snap.Failures != 1 {
		t.Errorf("Failures = %d, want 1", snap.Failures)
	}
}

func TestAggregator_RecentWindow(t *testing.T) {
	agg := NewAggregator(nil)

	for i := 0; i < recentWindow+10; i++ {
		agg.Record(outcome(fmt.Sprintf("o-%03d", i), true))
	}

	snap := agg.Snapshot()
	if len(snap.Recent) != recentWindow {
		t.Fatalf("len(Recent) = %d, want %d", len(snap.Recent), recentWindow)
	}

	// Most recent first; the oldest ten were dropped.
	if snap.Recent[0].OutcomeID != "o-059" {
		t.Errorf("Recent[0] = %s, want o-059", snap.Recent[0].OutcomeID)
	}
	if snap.Recent[recentWindow-1].OutcomeID != "o-010" {
		t.Errorf("Recent[last] = %s, want o-010", snap.Recent[recentWindow-1].OutcomeID)
	}
}

func TestAggregator_Realized(t *testing.T) {
	agg := NewAggregator(nil)

	agg.AddRealized(1.5)
	agg.AddRealized(-0.5)

	snap := agg.Snapshot()
	if snap.RealizedPnLSOL != 1.0 {
		t.Errorf("RealizedPnLSOL = %f, want 1.0", snap.RealizedPnLSOL)
	}
}

func TestAggregator_SnapshotIsolation(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Record(outcome("a", true))

	snap := agg.Snapshot()
	snap.Recent[0].Mint = "tampered"
	snap.Attempts = 999

	again := agg.Snapshot()
	if again.Recent[0].Mint != "Minta" {
		t.Error("snapshot mutation leaked into aggregator state")
	}
	if again.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", again.Attempts)
	}
}

func TestAggregator_Uptime(t *testing.T) {
	current := time.UnixMilli(0)
	agg := NewAggregator(func() time.Time { return current })

	current = current.Add(90 * time.Second)
	snap := agg.Snapshot()
	if snap.Uptime != 90*time.Second {
		t.Errorf("Uptime = %s, want 90s", snap.Uptime)
	}
}

func TestAggregator_Concurrent(t *testing.T) {
	agg := NewAggregator(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				agg.Record(outcome(fmt.Sprintf("g%d-%d", n, j), j%2 == 0))
				agg.AddRealized(0.01)
			}
		}(i)
	}
	wg.Wait()

	snap := agg.Snapshot()
	if snap.Attempts != 1000 {
		t.Errorf("Attempts = %d, want 1000", snap.Attempts)
	}
	if snap.Successes != 500 || snap.Failures != 500 {
		t.Errorf("Successes/Failures = %d/%d, want 500/500", snap.Successes, snap.Failures)
	}
	if len(snap.Recent) != recentWindow {
		t.Errorf("len(Recent) = %d, want %d", len(snap.Recent), recentWindow)
	}
}
