// Package chain defines the on-chain collaborator boundary. The pipeline
// core never talks to an RPC node directly; everything it needs from the
// network goes through these interfaces.
package chain

import (
	"context"

	"solana-sniper/internal/domain"
)

// ExecutionResult is what a successful acquisition returns.
type ExecutionResult struct {
	SpentSOL      float64
	UnitsReceived float64
	Reference     string // transaction signature or equivalent
}

// DisposalResult is what a successful liquidation returns.
type DisposalResult struct {
	ProceedsSOL float64
	Reference   string
}

// Wallet reports spendable balance.
type Wallet interface {
	// Balance returns the spendable SOL balance.
	Balance(ctx context.Context) (float64, error)
}

// AcquisitionExecutor performs the actual buy.
type AcquisitionExecutor interface {
	// Execute attempts to acquire the asset, spending at most spendLimitSOL.
	Execute(ctx context.Context, asset *domain.AssetDescriptor, spendLimitSOL float64) (*ExecutionResult, error)
}

// PriceOracle values held token units in SOL.
type PriceOracle interface {
	// Valuate returns the current SOL value of units of mint.
	Valuate(ctx context.Context, mint string, units float64) (float64, error)
}

// Disposal sells a held position.
type Disposal interface {
	// Liquidate sells units of mint for SOL.
	Liquidate(ctx context.Context, mint string, units float64) (*DisposalResult, error)
}

// NotificationSink receives fire-and-forget status messages. Implementations
// must swallow delivery failures; the core never checks them.
type NotificationSink interface {
	Notify(ctx context.Context, message string)
}
