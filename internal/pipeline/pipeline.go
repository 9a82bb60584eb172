// Package pipeline wires the feed, dedup, scheduler and exit evaluator
// into one runnable unit with a reporting surface.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"solana-sniper/internal/dedup"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/ledger"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/scheduler"
	"solana-sniper/internal/stats"
	"solana-sniper/internal/watch"
)

// Options configures a Pipeline.
type Options struct {
	Source    watch.Source
	Dedup     dedup.MarkerStore
	DedupTTL  time.Duration
	Scheduler *scheduler.Scheduler
	Evaluator *ledger.ExitEvaluator
	Ledger    *ledger.Ledger
	Stats     *stats.Aggregator
	// RatePerSec caps intake throughput; zero disables the limiter.
	RatePerSec float64
	RateBurst  int
	Logger     zerolog.Logger
}

// Status is the pipeline's reporting snapshot.
type Status struct {
	Stats         stats.Snapshot
	OpenPositions []*domain.Position
	ActiveTasks   int
	QueueDepth    int
	LastEventAt   int64 // Unix ms of the last feed event, 0 before the first
}

// Pipeline consumes feed events and drives them through dedup and the
// scheduler while the exit evaluator sweeps independently.
type Pipeline struct {
	source    watch.Source
	dedup     dedup.MarkerStore
	dedupTTL  time.Duration
	scheduler *scheduler.Scheduler
	evaluator *ledger.ExitEvaluator
	ledger    *ledger.Ledger
	stats     *stats.Aggregator
	limiter   *rate.Limiter
	logger    zerolog.Logger

	lastEventAt atomic.Int64

	// taskCtx outlives Stop so in-flight acquisitions finish naturally.
	taskCtx     context.Context
	intakeCtx   context.Context
	stopIntake  context.CancelFunc
	sweepCancel context.CancelFunc

	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// New creates a Pipeline from options.
func New(opts Options) *Pipeline {
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}

	return &Pipeline{
		source:    opts.Source,
		dedup:     opts.Dedup,
		dedupTTL:  opts.DedupTTL,
		scheduler: opts.Scheduler,
		evaluator: opts.Evaluator,
		ledger:    opts.Ledger,
		stats:     opts.Stats,
		limiter:   limiter,
		logger:    opts.Logger,
	}
}

// Start launches the intake loop and the exit evaluator. Returns
// immediately; the pipeline runs until Stop.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	p.taskCtx = context.Background()
	p.intakeCtx, p.stopIntake = context.WithCancel(context.Background())

	var sweepCtx context.Context
	sweepCtx, p.sweepCancel = context.WithCancel(context.Background())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.intakeLoop()
	}()

	if p.evaluator != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.evaluator.Run(sweepCtx)
		}()
	}

	p.logger.Info().Msg("pipeline started")
}

// Stop halts intake and sweeps, then drains in-flight acquisitions.
// Safe to call once after Start.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.stopIntake()
	p.source.Close()
	p.sweepCancel()
	p.wg.Wait()

	// Drain: in-flight tasks finish naturally, the overflow queue is dropped.
	p.scheduler.Close()

	p.logger.Info().Msg("pipeline stopped")
}

// Snapshot returns the current reporting status.
func (p *Pipeline) Snapshot(ctx context.Context) (*Status, error) {
	open, err := p.ledger.OpenPositions(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		Stats:         p.stats.Snapshot(),
		OpenPositions: open,
		ActiveTasks:   p.scheduler.ActiveCount(),
		QueueDepth:    p.scheduler.QueueDepth(),
		LastEventAt:   p.lastEventAt.Load(),
	}, nil
}

// intakeLoop consumes feed events until the source channel closes or
// intake is cancelled.
func (p *Pipeline) intakeLoop() {
	for {
		select {
		case <-p.intakeCtx.Done():
			return
		case asset, ok := <-p.source.Assets():
			if !ok {
				return
			}
			p.handleEvent(asset)
		}
	}
}

func (p *Pipeline) handleEvent(asset *domain.AssetDescriptor) {
	p.lastEventAt.Store(time.Now().UnixMilli())
	observability.RecordAssetObserved(string(asset.Source))

	if p.limiter != nil && !p.limiter.Allow() {
		observability.RecordIntakeDropped()
		p.logger.Debug().Str("mint", asset.Mint).Msg("event dropped by rate limit")
		return
	}

	seen, err := p.dedup.SeenRecently(p.intakeCtx, asset.Mint)
	if err != nil {
		// Dedup is best-effort; on store failure the event proceeds.
		p.logger.Warn().Err(err).Str("mint", asset.Mint).Msg("dedup lookup failed")
	}
	if seen {
		observability.RecordDedupHit()
		p.logger.Debug().Str("mint", asset.Mint).Msg("repeat sighting suppressed")
		return
	}

	if err := p.dedup.Mark(p.intakeCtx, asset.Mint, p.dedupTTL); err != nil {
		p.logger.Warn().Err(err).Str("mint", asset.Mint).Msg("dedup mark failed")
	}

	p.logger.Info().
		Str("mint", asset.Mint).
		Str("source", string(asset.Source)).
		Msg("new asset observed")

	p.scheduler.Submit(p.taskCtx, asset)
}
