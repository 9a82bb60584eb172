// Package stub provides in-memory chain collaborators for tests and for
// running the sniper without a live RPC endpoint.
package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solana-sniper/internal/chain"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/riskgate"
)

// Wallet implements chain.Wallet with a mutable in-memory balance.
type Wallet struct {
	mu      sync.Mutex
	balance float64
}

// NewWallet creates a wallet holding balanceSOL.
func NewWallet(balanceSOL float64) *Wallet {
	return &Wallet{balance: balanceSOL}
}

var _ chain.Wallet = (*Wallet)(nil)

// Balance returns the current balance.
func (w *Wallet) Balance(_ context.Context) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance, nil
}

// Debit subtracts amount from the balance.
func (w *Wallet) Debit(amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance -= amount
}

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance += amount
}

// lamportsPerSOL converts priority fees to SOL.
const lamportsPerSOL = 1_000_000_000

// Executor implements chain.AcquisitionExecutor. Every execution spends the
// full limit and receives UnitsPerSOL units per SOL spent. Fills take the
// worst case allowed by the trade parameters: the full slippage haircut on
// units and the priority fee on top of the spend.
type Executor struct {
	mu          sync.Mutex
	UnitsPerSOL float64
	FailWith    error // when set, Execute fails
	wallet      *Wallet
	executions  int

	maxSlippagePct      float64
	priorityFeeLamports int64
}

// NewExecutor creates an Executor that debits the given wallet.
func NewExecutor(wallet *Wallet, unitsPerSOL float64) *Executor {
	return &Executor{wallet: wallet, UnitsPerSOL: unitsPerSOL}
}

var _ chain.AcquisitionExecutor = (*Executor)(nil)

// SetTradeParams configures the slippage tolerance and priority fee applied
// to every fill.
func (e *Executor) SetTradeParams(maxSlippagePct float64, priorityFeeLamports int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxSlippagePct = maxSlippagePct
	e.priorityFeeLamports = priorityFeeLamports
}

// Execute spends spendLimitSOL plus the priority fee and returns the
// acquired units after the slippage haircut.
func (e *Executor) Execute(_ context.Context, asset *domain.AssetDescriptor, spendLimitSOL float64) (*chain.ExecutionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailWith != nil {
		return nil, e.FailWith
	}

	units := spendLimitSOL * e.UnitsPerSOL * (1 - e.maxSlippagePct/100)
	spent := spendLimitSOL + float64(e.priorityFeeLamports)/lamportsPerSOL

	e.executions++
	if e.wallet != nil {
		e.wallet.Debit(spent)
	}
	return &chain.ExecutionResult{
		SpentSOL:      spent,
		UnitsReceived: units,
		Reference:     fmt.Sprintf("stub-tx-%s-%d", asset.Mint, e.executions),
	}, nil
}

// Executions returns how many times Execute succeeded.
func (e *Executor) Executions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.executions
}

// Oracle implements chain.PriceOracle with settable per-mint unit prices.
type Oracle struct {
	mu     sync.Mutex
	prices map[string]float64 // SOL per unit
}

// NewOracle creates an empty Oracle.
func NewOracle() *Oracle {
	return &Oracle{prices: make(map[string]float64)}
}

var _ chain.PriceOracle = (*Oracle)(nil)

// SetPrice sets the SOL price of one unit of mint.
func (o *Oracle) SetPrice(mint string, solPerUnit float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[mint] = solPerUnit
}

// Valuate returns units * price. Unknown mints are an error.
func (o *Oracle) Valuate(_ context.Context, mint string, units float64) (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	price, ok := o.prices[mint]
	if !ok {
		return 0, errors.New("no price for mint " + mint)
	}
	return units * price, nil
}

// Disposal implements chain.Disposal by selling at the oracle price and
// crediting the wallet.
type Disposal struct {
	mu     sync.Mutex
	oracle *Oracle
	wallet *Wallet
	sales  int
}

// NewDisposal creates a Disposal selling at oracle prices into wallet.
func NewDisposal(oracle *Oracle, wallet *Wallet) *Disposal {
	return &Disposal{oracle: oracle, wallet: wallet}
}

var _ chain.Disposal = (*Disposal)(nil)

// Liquidate sells units of mint at the oracle price.
func (d *Disposal) Liquidate(ctx context.Context, mint string, units float64) (*chain.DisposalResult, error) {
	proceeds, err := d.oracle.Valuate(ctx, mint, units)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.sales++
	n := d.sales
	d.mu.Unlock()

	if d.wallet != nil {
		d.wallet.Credit(proceeds)
	}
	return &chain.DisposalResult{
		ProceedsSOL: proceeds,
		Reference:   fmt.Sprintf("stub-sell-%s-%d", mint, n),
	}, nil
}

// AuthorityReader implements riskgate.AuthorityReader with per-mint flags.
type AuthorityReader struct {
	mu    sync.Mutex
	flags map[string]riskgate.Authorities
}

// NewAuthorityReader creates an AuthorityReader reporting clean flags for
// unknown mints.
func NewAuthorityReader() *AuthorityReader {
	return &AuthorityReader{flags: make(map[string]riskgate.Authorities)}
}

var _ riskgate.AuthorityReader = (*AuthorityReader)(nil)

// SetAuthorities sets the flags for a mint.
func (r *AuthorityReader) SetAuthorities(mint string, auth riskgate.Authorities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[mint] = auth
}

// Authorities returns the configured flags, zero flags for unknown mints.
func (r *AuthorityReader) Authorities(_ context.Context, mint string) (riskgate.Authorities, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flags[mint], nil
}

// HolderReader implements riskgate.HolderReader with per-mint distributions.
type HolderReader struct {
	mu       sync.Mutex
	dists    map[string]riskgate.Distribution
	fallback riskgate.Distribution
}

// NewHolderReader creates a HolderReader. Unknown mints report fallback.
func NewHolderReader(fallback riskgate.Distribution) *HolderReader {
	return &HolderReader{
		dists:    make(map[string]riskgate.Distribution),
		fallback: fallback,
	}
}

var _ riskgate.HolderReader = (*HolderReader)(nil)

// SetDistribution sets the distribution for a mint.
func (r *HolderReader) SetDistribution(mint string, dist riskgate.Distribution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dists[mint] = dist
}

// Distribution returns the configured distribution or the fallback.
func (r *HolderReader) Distribution(_ context.Context, mint string) (riskgate.Distribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dist, ok := r.dists[mint]; ok {
		return dist, nil
	}
	return r.fallback, nil
}
