package chain

import (
	"context"

	"solana-sniper/internal/domain"
)

// GuardedExecutor wraps an AcquisitionExecutor with a Breaker so a failing
// RPC path cannot be hammered in a tight loop.
type GuardedExecutor struct {
	inner   AcquisitionExecutor
	breaker *Breaker
}

// NewGuardedExecutor wraps inner with breaker.
func NewGuardedExecutor(inner AcquisitionExecutor, breaker *Breaker) *GuardedExecutor {
	return &GuardedExecutor{inner: inner, breaker: breaker}
}

// Compile-time interface check.
var _ AcquisitionExecutor = (*GuardedExecutor)(nil)

// Execute runs the acquisition through the breaker.
func (g *GuardedExecutor) Execute(ctx context.Context, asset *domain.AssetDescriptor, spendLimitSOL float64) (*ExecutionResult, error) {
	var result *ExecutionResult
	err := g.breaker.Do(ctx, "execute", func() error {
		var innerErr error
		result, innerErr = g.inner.Execute(ctx, asset, spendLimitSOL)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GuardedOracle wraps a PriceOracle with a Breaker.
type GuardedOracle struct {
	inner   PriceOracle
	breaker *Breaker
}

// NewGuardedOracle wraps inner with breaker.
func NewGuardedOracle(inner PriceOracle, breaker *Breaker) *GuardedOracle {
	return &GuardedOracle{inner: inner, breaker: breaker}
}

// Compile-time interface check.
var _ PriceOracle = (*GuardedOracle)(nil)

// Valuate runs the price lookup through the breaker.
func (g *GuardedOracle) Valuate(ctx context.Context, mint string, units float64) (float64, error) {
	var value float64
	err := g.breaker.Do(ctx, "valuate", func() error {
		var innerErr error
		value, innerErr = g.inner.Valuate(ctx, mint, units)
		return innerErr
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}
