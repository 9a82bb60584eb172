package ledger

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/chain/stub"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/stats"
	"solana-sniper/internal/storage/memory"
)

type exitFixture struct {
	ledger    *Ledger
	oracle    *stub.Oracle
	wallet    *stub.Wallet
	stats     *stats.Aggregator
	evaluator *ExitEvaluator
}

func newExitFixture(t *testing.T, tpPct, slPct float64) *exitFixture {
	t.Helper()

	l := NewLedger(memory.NewPositionStore(), zerolog.Nop())
	oracle := stub.NewOracle()
	wallet := stub.NewWallet(0)
	agg := stats.NewAggregator(nil)

	evaluator := NewExitEvaluator(ExitOptions{
		Ledger:        l,
		Oracle:        oracle,
		Disposal:      stub.NewDisposal(oracle, wallet),
		Stats:         agg,
		Notifier:      nil,
		TakeProfitPct: tpPct,
		StopLossPct:   slPct,
		Interval:      time.Hour,
		Enabled:       true,
		Logger:        zerolog.Nop(),
		Now:           func() time.Time { return time.UnixMilli(9000) },
	})

	return &exitFixture{ledger: l, oracle: oracle, wallet: wallet, stats: agg, evaluator: evaluator}
}

func openPosition(t *testing.T, f *exitFixture, mint string, costBasis, units float64) *domain.Position {
	t.Helper()
	p, err := f.ledger.Open(context.Background(), testAsset(mint), &domain.AcquisitionOutcome{
		OutcomeID:     "out-" + mint,
		Mint:          mint,
		Success:       true,
		SpentSOL:      costBasis,
		UnitsReceived: units,
		Timestamp:     1000,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return p
}

func TestExitEvaluator_TakeProfit(t *testing.T) {
	f := newExitFixture(t, 100, 50)
	ctx := context.Background()

	p := openPosition(t, f, "MintAAA", 1.0, 1000)
	// Value doubles: pnl +100%, meets the take-profit threshold exactly.
	f.oracle.SetPrice("MintAAA", 0.002)

	f.evaluator.SweepOnce(ctx)

	got, err := f.ledger.Position(ctx, p.PositionID)
	if err != nil {
		t.Fatalf("Position() error = %v", err)
	}
	if got.Status != domain.PositionClosed {
		t.Fatalf("Status = %s, want CLOSED", got.Status)
	}
	if got.ExitReason != domain.ExitTakeProfit {
		t.Errorf("ExitReason = %s, want TAKE_PROFIT", got.ExitReason)
	}
	if got.ClosedAt == nil || *got.ClosedAt != 9000 {
		t.Errorf("ClosedAt = %v, want 9000", got.ClosedAt)
	}

	snap := f.stats.Snapshot()
	if math.Abs(snap.RealizedPnLSOL-1.0) > 1e-9 {
		t.Errorf("RealizedPnLSOL = %f, want 1.0", snap.RealizedPnLSOL)
	}
}

func TestExitEvaluator_StopLoss(t *testing.T) {
	f := newExitFixture(t, 100, 50)
	ctx := context.Background()

	p := openPosition(t, f, "MintBBB", 1.0, 1000)
	// Value drops to 0.4: pnl -60%, beyond the 50% stop-loss.
	f.oracle.SetPrice("MintBBB", 0.0004)

	f.evaluator.SweepOnce(ctx)

	got, _ := f.ledger.Position(ctx, p.PositionID)
	if got.Status != domain.PositionClosed {
		t.Fatalf("Status = %s, want CLOSED", got.Status)
	}
	if got.ExitReason != domain.ExitStopLoss {
		t.Errorf("ExitReason = %s, want STOP_LOSS", got.ExitReason)
	}

	snap := f.stats.Snapshot()
	if math.Abs(snap.RealizedPnLSOL-(-0.6)) > 1e-9 {
		t.Errorf("RealizedPnLSOL = %f, want -0.6", snap.RealizedPnLSOL)
	}
}

func TestExitEvaluator_HoldsBetweenThresholds(t *testing.T) {
	f := newExitFixture(t, 100, 50)
	ctx := context.Background()

	p := openPosition(t, f, "MintCCC", 1.0, 1000)
	// +20%: neither threshold crossed, valuation recorded, position stays open.
	f.oracle.SetPrice("MintCCC", 0.0012)

	f.evaluator.SweepOnce(ctx)

	got, _ := f.ledger.Position(ctx, p.PositionID)
	if !got.IsOpen() {
		t.Fatal("position should remain OPEN between thresholds")
	}
	if got.CurrentValueSOL == nil || math.Abs(*got.CurrentValueSOL-1.2) > 1e-9 {
		t.Errorf("CurrentValueSOL = %v, want 1.2", got.CurrentValueSOL)
	}
	if got.PnLPct == nil || math.Abs(*got.PnLPct-20) > 1e-9 {
		t.Errorf("PnLPct = %v, want 20", got.PnLPct)
	}

	// Recompute on a later sweep with the same price is idempotent.
	f.evaluator.SweepOnce(ctx)
	again, _ := f.ledger.Position(ctx, p.PositionID)
	if !again.IsOpen() || *again.CurrentValueSOL != *got.CurrentValueSOL {
		t.Error("second sweep with unchanged price must not alter the position")
	}
}

func TestExitEvaluator_OracleFailureDoesNotAbortSweep(t *testing.T) {
	f := newExitFixture(t, 100, 50)
	ctx := context.Background()

	// No price set for MintDDD: its evaluation fails.
	openPosition(t, f, "MintDDD", 1.0, 1000)
	p := openPosition(t, f, "MintEEE", 1.0, 1000)
	f.oracle.SetPrice("MintEEE", 0.003)

	f.evaluator.SweepOnce(ctx)

	got, _ := f.ledger.Position(ctx, p.PositionID)
	if got.Status != domain.PositionClosed {
		t.Error("healthy position must still be evaluated after a failing one")
	}
}

func TestExitEvaluator_ClosedPositionsNotRevisited(t *testing.T) {
	f := newExitFixture(t, 100, 50)
	ctx := context.Background()

	p := openPosition(t, f, "MintFFF", 1.0, 1000)
	f.oracle.SetPrice("MintFFF", 0.002)

	f.evaluator.SweepOnce(ctx)
	first, _ := f.ledger.Position(ctx, p.PositionID)
	if first.Status != domain.PositionClosed {
		t.Fatal("expected position closed on first sweep")
	}

	// Price moves after close; a later sweep must not touch the position.
	f.oracle.SetPrice("MintFFF", 0.0001)
	f.evaluator.SweepOnce(ctx)

	again, _ := f.ledger.Position(ctx, p.PositionID)
	if *again.CurrentValueSOL != *first.CurrentValueSOL || again.ExitReason != first.ExitReason {
		t.Error("closed position was modified by a later sweep")
	}

	snap := f.stats.Snapshot()
	if math.Abs(snap.RealizedPnLSOL-1.0) > 1e-9 {
		t.Errorf("RealizedPnLSOL = %f, want 1.0 (single exit)", snap.RealizedPnLSOL)
	}
}

func TestExitEvaluator_DisabledRunReturns(t *testing.T) {
	f := newExitFixture(t, 100, 50)
	f.evaluator.enabled = false

	done := make(chan struct{})
	go func() {
		f.evaluator.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() with auto-exit disabled must return immediately")
	}
}

func TestExitEvaluator_RunStopsOnCancel(t *testing.T) {
	f := newExitFixture(t, 100, 50)
	f.evaluator.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.evaluator.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop on context cancellation")
	}
}
