package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/chain"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/stats"
)

// ExitOptions configures an ExitEvaluator.
type ExitOptions struct {
	Ledger        *Ledger
	Oracle        chain.PriceOracle
	Disposal      chain.Disposal
	Stats         *stats.Aggregator
	Notifier      chain.NotificationSink
	TakeProfitPct float64       // trigger when pnl pct >= this
	StopLossPct   float64       // positive; trigger when pnl pct <= -this
	Interval      time.Duration // sweep interval
	Enabled       bool          // auto-exit toggle
	Logger        zerolog.Logger
	Now           func() time.Time // defaults to time.Now
}

// ExitEvaluator periodically values OPEN positions and liquidates those that
// cross the take-profit or stop-loss thresholds. Its timer is independent of
// the scheduler; the two only meet at the position store.
type ExitEvaluator struct {
	ledger   *Ledger
	oracle   chain.PriceOracle
	disposal chain.Disposal
	stats    *stats.Aggregator
	notifier chain.NotificationSink
	tpPct    float64
	slPct    float64
	interval time.Duration
	enabled  bool
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExitEvaluator creates an ExitEvaluator from options.
func NewExitEvaluator(opts ExitOptions) *ExitEvaluator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ExitEvaluator{
		ledger:   opts.Ledger,
		oracle:   opts.Oracle,
		disposal: opts.Disposal,
		stats:    opts.Stats,
		notifier: opts.Notifier,
		tpPct:    opts.TakeProfitPct,
		slPct:    opts.StopLossPct,
		interval: opts.Interval,
		enabled:  opts.Enabled,
		logger:   opts.Logger,
		now:      now,
	}
}

// Run sweeps on the configured interval until ctx is cancelled. When the
// auto-exit toggle is off, Run returns immediately and positions stay open
// until handled externally.
func (e *ExitEvaluator) Run(ctx context.Context) {
	if !e.enabled {
		e.logger.Info().Msg("auto-exit disabled, no sweeps will run")
		return
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.SweepOnce(ctx)
		}
	}
}

// SweepOnce evaluates every OPEN position once. Failures on one position
// are logged and never abort the rest of the sweep.
func (e *ExitEvaluator) SweepOnce(ctx context.Context) {
	observability.RecordSweep()

	positions, err := e.ledger.OpenPositions(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("sweep: listing open positions failed")
		return
	}

	for _, p := range positions {
		if err := e.evaluate(ctx, p); err != nil {
			e.logger.Error().
				Err(err).
				Str("position_id", p.PositionID).
				Str("mint", p.Mint).
				Msg("sweep: position evaluation failed")
		}
	}
}

func (e *ExitEvaluator) evaluate(ctx context.Context, p *domain.Position) error {
	value, err := e.oracle.Valuate(ctx, p.Mint, p.Units)
	if err != nil {
		return fmt.Errorf("valuate: %w", err)
	}

	pnlSOL := value - p.CostBasisSOL
	pnlPct := 0.0
	if p.CostBasisSOL > 0 {
		pnlPct = pnlSOL / p.CostBasisSOL * 100
	}

	reason, triggered := e.exitReason(pnlPct)
	if !triggered {
		if err := e.ledger.UpdateValuation(ctx, p.PositionID, value, pnlSOL, pnlPct); err != nil {
			return fmt.Errorf("update valuation: %w", err)
		}
		return nil
	}

	result, err := e.disposal.Liquidate(ctx, p.Mint, p.Units)
	if err != nil {
		return fmt.Errorf("liquidate: %w", err)
	}

	realized := result.ProceedsSOL - p.CostBasisSOL
	realizedPct := 0.0
	if p.CostBasisSOL > 0 {
		realizedPct = realized / p.CostBasisSOL * 100
	}

	closedAt := e.now().UnixMilli()
	if err := e.ledger.Close(ctx, p.PositionID, closedAt, reason, result.ProceedsSOL, realized, realizedPct); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if e.stats != nil {
		e.stats.AddRealized(realized)
		observability.DefaultMetrics.RealizedPnLSOL.Set(e.stats.Snapshot().RealizedPnLSOL)
	}
	if e.notifier != nil {
		e.notifier.Notify(ctx, fmt.Sprintf("%s exit on %s: %+.4f SOL (%+.1f%%), tx %s",
			reason, p.Mint, realized, realizedPct, result.Reference))
	}

	return nil
}

// exitReason maps a pnl percentage to an exit trigger, if any.
func (e *ExitEvaluator) exitReason(pnlPct float64) (domain.ExitReason, bool) {
	switch {
	case pnlPct >= e.tpPct:
		return domain.ExitTakeProfit, true
	case pnlPct <= -e.slPct:
		return domain.ExitStopLoss, true
	default:
		return "", false
	}
}
