// Package scheduler runs acquisition attempts under admission control:
// at most MaxConcurrent tasks execute at once, repeat submissions for a
// mint coalesce onto the in-flight attempt, and overflow lands in a FIFO
// queue drained as capacity frees up.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/chain"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/idhash"
	"solana-sniper/internal/ledger"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/riskgate"
	"solana-sniper/internal/stats"
	"solana-sniper/internal/storage"
)

// Ticket tracks one submission. Done is closed when the attempt finishes;
// Outcome is valid only after that.
type Ticket struct {
	done    chan struct{}
	mu      sync.Mutex
	outcome *domain.AcquisitionOutcome
}

func newTicket() *Ticket {
	return &Ticket{done: make(chan struct{})}
}

func resolvedTicket(outcome *domain.AcquisitionOutcome) *Ticket {
	t := newTicket()
	t.resolve(outcome)
	return t
}

func (t *Ticket) resolve(outcome *domain.AcquisitionOutcome) {
	t.mu.Lock()
	t.outcome = outcome
	t.mu.Unlock()
	close(t.done)
}

// Done is closed once the attempt has an outcome.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Outcome returns the attempt result, or nil while still in flight.
func (t *Ticket) Outcome() *domain.AcquisitionOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// Options configures a Scheduler.
type Options struct {
	Gate          *riskgate.Gate
	Wallet        chain.Wallet
	Executor      chain.AcquisitionExecutor
	Ledger        *ledger.Ledger
	Stats         *stats.Aggregator
	Outcomes      storage.OutcomeStore   // optional
	Archive       storage.OutcomeArchive // optional
	Notifier      chain.NotificationSink // optional
	MaxConcurrent int
	SpendSOL      float64       // spend limit per acquisition
	PacingDelay   time.Duration // wait before assessing, lets pools settle
	QueueSettle   time.Duration // delay between consecutive queue drains
	Logger        zerolog.Logger
	Now           func() time.Time // defaults to time.Now
}

type queueItem struct {
	ctx   context.Context
	asset *domain.AssetDescriptor
}

// Scheduler is safe for concurrent use. A single mutex guards the active
// set and the overflow queue so admission decisions are atomic.
type Scheduler struct {
	gate     *riskgate.Gate
	wallet   chain.Wallet
	executor chain.AcquisitionExecutor
	ledger   *ledger.Ledger
	stats    *stats.Aggregator
	outcomes storage.OutcomeStore
	archive  storage.OutcomeArchive
	notifier chain.NotificationSink

	maxConcurrent int
	spendSOL      float64
	pacingDelay   time.Duration
	queueSettle   time.Duration
	logger        zerolog.Logger
	now           func() time.Time

	mu     sync.Mutex
	active map[string]*Ticket // mint -> in-flight ticket
	queued map[string]*Ticket // mint -> resolved CAPACITY_QUEUED ticket
	queue  []queueItem
	closed bool

	wg sync.WaitGroup
}

// New creates a Scheduler from options.
func New(opts Options) *Scheduler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Scheduler{
		gate:          opts.Gate,
		wallet:        opts.Wallet,
		executor:      opts.Executor,
		ledger:        opts.Ledger,
		stats:         opts.Stats,
		outcomes:      opts.Outcomes,
		archive:       opts.Archive,
		notifier:      opts.Notifier,
		maxConcurrent: maxConcurrent,
		spendSOL:      opts.SpendSOL,
		pacingDelay:   opts.PacingDelay,
		queueSettle:   opts.QueueSettle,
		logger:        opts.Logger,
		now:           now,
		active:        make(map[string]*Ticket),
		queued:        make(map[string]*Ticket),
	}
}

// Submit admits an asset for acquisition. Never blocks on execution.
//
// Repeat submissions while an attempt is in flight or queued return the
// existing ticket without starting new work. When the active set is full,
// the asset joins the overflow queue and the returned ticket is already
// resolved with a CAPACITY_QUEUED outcome; the queued attempt's eventual
// result is not observable through it.
func (s *Scheduler) Submit(ctx context.Context, asset *domain.AssetDescriptor) *Ticket {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return resolvedTicket(s.failureOutcome(asset, domain.FailExecutionError, "scheduler closed"))
	}

	if t, ok := s.active[asset.Mint]; ok {
		s.mu.Unlock()
		return t
	}
	if t, ok := s.queued[asset.Mint]; ok {
		s.mu.Unlock()
		return t
	}

	observability.RecordSubmission()

	if len(s.active) < s.maxConcurrent {
		t := newTicket()
		s.active[asset.Mint] = t
		s.updateGauges()
		s.wg.Add(1)
		s.mu.Unlock()

		go s.runTask(ctx, asset, t, 0)
		return t
	}

	// Capacity exhausted: enqueue and report backpressure immediately.
	outcome := s.failureOutcome(asset, domain.FailCapacityQueued,
		fmt.Sprintf("capacity %d exhausted, queued at depth %d", s.maxConcurrent, len(s.queue)+1))
	t := resolvedTicket(outcome)
	s.queued[asset.Mint] = t
	s.queue = append(s.queue, queueItem{ctx: ctx, asset: asset})
	s.updateGauges()
	s.mu.Unlock()

	s.record(outcome, asset)
	s.logger.Info().
		Str("mint", asset.Mint).
		Msg("acquisition queued, capacity exhausted")
	return t
}

// Close stops intake, drops the overflow queue and waits for in-flight
// tasks to finish naturally.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.queued = make(map[string]*Ticket)
	s.updateGauges()
	s.mu.Unlock()

	s.wg.Wait()
}

// ActiveCount returns the number of tasks currently executing.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// QueueDepth returns the number of assets waiting in the overflow queue.
func (s *Scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// runTask executes one acquisition attempt and then drains the queue.
// Must be called with the task already in the active set and wg incremented.
func (s *Scheduler) runTask(ctx context.Context, asset *domain.AssetDescriptor, t *Ticket, settle time.Duration) {
	defer s.wg.Done()

	if settle > 0 {
		time.Sleep(settle)
	}

	outcome := s.execute(ctx, asset)

	s.mu.Lock()
	delete(s.active, asset.Mint)
	s.updateGauges()
	s.mu.Unlock()

	t.resolve(outcome)
	s.record(outcome, asset)
	s.finalize(ctx, asset, outcome)

	s.drain()
}

// drain pops the next queued asset if capacity allows. The settle delay is
// applied inside the new task so the pop itself stays atomic.
func (s *Scheduler) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.queue) == 0 || len(s.active) >= s.maxConcurrent {
		return
	}

	item := s.queue[0]
	s.queue = s.queue[1:]
	delete(s.queued, item.asset.Mint)

	t := newTicket()
	s.active[item.asset.Mint] = t
	s.updateGauges()
	s.wg.Add(1)

	go s.runTask(item.ctx, item.asset, t, s.queueSettle)
}

// execute runs the acquisition path for one asset. Panics anywhere inside
// are converted into an EXECUTION_ERROR outcome; one bad task never takes
// down the scheduler or its siblings.
func (s *Scheduler) execute(ctx context.Context, asset *domain.AssetDescriptor) (outcome *domain.AcquisitionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("mint", asset.Mint).
				Interface("panic", r).
				Msg("acquisition task panicked")
			outcome = s.failureOutcome(asset, domain.FailExecutionError, fmt.Sprintf("task panic: %v", r))
		}
	}()

	if s.pacingDelay > 0 {
		select {
		case <-time.After(s.pacingDelay):
		case <-ctx.Done():
			return s.failureOutcome(asset, domain.FailExecutionError, ctx.Err().Error())
		}
	}

	assessment := s.gate.Assess(ctx, asset)
	if !assessment.Secure {
		return s.failureOutcome(asset, domain.FailSecurityRejected,
			fmt.Sprintf("risk score %d (%s), %d issues", assessment.Score, assessment.Level, len(assessment.Issues)))
	}

	balance, err := s.wallet.Balance(ctx)
	if err != nil {
		return s.failureOutcome(asset, domain.FailExecutionError, fmt.Sprintf("balance lookup: %v", err))
	}
	if balance < s.spendSOL {
		return s.failureOutcome(asset, domain.FailInsufficientFunds,
			fmt.Sprintf("balance %.4f SOL below spend limit %.4f SOL", balance, s.spendSOL))
	}

	result, err := s.executor.Execute(ctx, asset, s.spendSOL)
	if err != nil {
		return s.failureOutcome(asset, domain.FailExecutionError, fmt.Sprintf("execute: %v", err))
	}

	return &domain.AcquisitionOutcome{
		OutcomeID:     idhash.ComputeOutcomeID(asset.Mint, s.now().UnixMilli()),
		Mint:          asset.Mint,
		Success:       true,
		SpentSOL:      result.SpentSOL,
		UnitsReceived: result.UnitsReceived,
		Reference:     result.Reference,
		Timestamp:     s.now().UnixMilli(),
	}
}

// record counts the outcome in stats and metrics.
func (s *Scheduler) record(outcome *domain.AcquisitionOutcome, asset *domain.AssetDescriptor) {
	if s.stats != nil {
		s.stats.Record(outcome)
	}
	observability.RecordOutcome(outcome.Success, string(outcome.Reason))
}

// finalize persists the outcome and opens a position on success.
func (s *Scheduler) finalize(ctx context.Context, asset *domain.AssetDescriptor, outcome *domain.AcquisitionOutcome) {
	if s.outcomes != nil {
		if err := s.outcomes.Insert(ctx, outcome); err != nil {
			s.logger.Error().Err(err).Str("mint", asset.Mint).Msg("persisting outcome failed")
		}
	}
	if s.archive != nil {
		if err := s.archive.InsertBulk(ctx, []*domain.AcquisitionOutcome{outcome}); err != nil {
			s.logger.Error().Err(err).Str("mint", asset.Mint).Msg("archiving outcome failed")
		}
	}

	if outcome.Success {
		if s.ledger != nil {
			if _, err := s.ledger.Open(ctx, asset, outcome); err != nil {
				s.logger.Error().Err(err).Str("mint", asset.Mint).Msg("opening position failed")
			}
		}
		if s.notifier != nil {
			s.notifier.Notify(ctx, fmt.Sprintf("sniped %s: spent %.4f SOL for %.0f units, tx %s",
				asset.DisplayName(), outcome.SpentSOL, outcome.UnitsReceived, outcome.Reference))
		}
		s.logger.Info().
			Str("mint", asset.Mint).
			Float64("spent_sol", outcome.SpentSOL).
			Float64("units", outcome.UnitsReceived).
			Msg("acquisition succeeded")
		return
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, fmt.Sprintf("skipped %s: %s (%s)",
			asset.DisplayName(), outcome.Reason, outcome.Error))
	}
	s.logger.Info().
		Str("mint", asset.Mint).
		Str("reason", string(outcome.Reason)).
		Str("error", outcome.Error).
		Msg("acquisition failed")
}

func (s *Scheduler) failureOutcome(asset *domain.AssetDescriptor, reason domain.FailReason, errText string) *domain.AcquisitionOutcome {
	ts := s.now().UnixMilli()
	return &domain.AcquisitionOutcome{
		OutcomeID: idhash.ComputeOutcomeID(asset.Mint, ts),
		Mint:      asset.Mint,
		Success:   false,
		Reason:    reason,
		Error:     errText,
		Timestamp: ts,
	}
}

// updateGauges publishes active/queue sizes. Caller must hold s.mu.
func (s *Scheduler) updateGauges() {
	observability.DefaultMetrics.ActiveTasks.Set(float64(len(s.active)))
	observability.DefaultMetrics.QueueDepth.Set(float64(len(s.queue)))
}
