// Package riskgate scores newly observed assets before any SOL is spent.
// The gate is the only component allowed to veto an acquisition.
package riskgate

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

// Reputation is what a ReputationSource knows about a creator address.
type Reputation struct {
	Denylisted     bool
	Allowlisted    bool
	AllowlistInUse bool
}

// ReputationSource reports deny/allow list membership for creator addresses.
type ReputationSource interface {
	Reputation(ctx context.Context, creator string) (Reputation, error)
}

// Authorities are the on-chain authority flags of a token mint.
type Authorities struct {
	MintAuthority   bool
	FreezeAuthority bool
}

// AuthorityReader reads authority flags for a mint.
type AuthorityReader interface {
	Authorities(ctx context.Context, mint string) (Authorities, error)
}

// Distribution summarizes the holder distribution of a mint.
type Distribution struct {
	HolderCount  int
	TopHolderPct float64 // largest non-pool holder's share, 0..100
}

// HolderReader reads holder distribution for a mint.
type HolderReader interface {
	Distribution(ctx context.Context, mint string) (Distribution, error)
}

// Thresholds are the configurable limits the gate checks against.
type Thresholds struct {
	MinLiquiditySOL float64
	MinHolderCount  int
	MaxTopHolderPct float64
	MinAge          time.Duration
}

// scamPattern matches token names and symbols that follow well-worn
// pump-and-dump naming conventions.
var scamPattern = regexp.MustCompile(`(?i)(moon|rocket|safe|doge|shib|elon|test|temp|fake|scam)`)

// Options configures a Gate.
type Options struct {
	Reputation  ReputationSource
	Authorities AuthorityReader
	Holders     HolderReader
	Thresholds  Thresholds
	Logger      zerolog.Logger
	Now         func() time.Time // defaults to time.Now
}

// Gate scores assets. Assess never returns an error; collaborator failures
// degrade the score instead of blocking the verdict.
type Gate struct {
	reputation  ReputationSource
	authorities AuthorityReader
	holders     HolderReader
	thresholds  Thresholds
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGate creates a Gate from Options.
func NewGate(opts Options) *Gate {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{
		reputation:  opts.Reputation,
		authorities: opts.Authorities,
		holders:     opts.Holders,
		thresholds:  opts.Thresholds,
		logger:      opts.Logger,
		now:         now,
	}
}

// Assess scores an asset. Score starts at 100 and each triggered check
// deducts by severity, floored at 0. A check that cannot complete adds one
// MEDIUM incomplete-analysis issue. A panic anywhere in the assessment
// yields score 0 with a single CRITICAL issue; Assess never panics and
// never returns an error.
func (g *Gate) Assess(ctx context.Context, asset *domain.AssetDescriptor) (result domain.RiskAssessment) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().
				Str("mint", asset.Mint).
				Interface("panic", r).
				Msg("risk assessment failed")
			result = domain.RiskAssessment{
				Score: 0,
				Issues: []domain.RiskIssue{{
					Kind:        domain.IssueAnalysisIncomplete,
					Severity:    domain.SeverityCritical,
					Description: fmt.Sprintf("assessment failed: %v", r),
				}},
				Secure: false,
				Level:  domain.RiskCritical,
			}
		}
	}()

	var issues []domain.RiskIssue

	issues = append(issues, g.checkCreator(ctx, asset)...)
	issues = append(issues, g.checkAuthorities(ctx, asset)...)
	issues = append(issues, g.checkLiquidity(asset)...)
	issues = append(issues, g.checkHolders(ctx, asset)...)
	issues = append(issues, g.checkName(asset)...)
	issues = append(issues, g.checkAge(asset)...)

	score := 100
	for _, issue := range issues {
		score -= issue.Severity.Deduction()
	}
	if score < 0 {
		score = 0
	}

	result = domain.RiskAssessment{
		Score:  score,
		Issues: issues,
	}
	result.Secure = score >= 70 && !result.HasCritical()
	result.Level = riskLevel(score, result.HasCritical())

	g.logger.Debug().
		Str("mint", asset.Mint).
		Int("score", score).
		Int("issues", len(issues)).
		Bool("secure", result.Secure).
		Str("level", string(result.Level)).
		Msg("asset assessed")

	return result
}

func riskLevel(score int, hasCritical bool) domain.RiskLevel {
	switch {
	case hasCritical || score < 30:
		return domain.RiskCritical
	case score < 50:
		return domain.RiskHigh
	case score < 70:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func (g *Gate) checkCreator(ctx context.Context, asset *domain.AssetDescriptor) []domain.RiskIssue {
	rep, err := g.reputation.Reputation(ctx, asset.Creator)
	if err != nil {
		return incomplete("creator reputation", err)
	}

	if rep.Denylisted {
		return []domain.RiskIssue{{
			Kind:        domain.IssueSuspiciousCreator,
			Severity:    domain.SeverityCritical,
			Description: "creator is denylisted",
		}}
	}
	if rep.AllowlistInUse && !rep.Allowlisted {
		return []domain.RiskIssue{{
			Kind:        domain.IssueSuspiciousCreator,
			Severity:    domain.SeverityHigh,
			Description: "creator is not on the allowlist",
		}}
	}
	return nil
}

func (g *Gate) checkAuthorities(ctx context.Context, asset *domain.AssetDescriptor) []domain.RiskIssue {
	auth, err := g.authorities.Authorities(ctx, asset.Mint)
	if err != nil {
		return incomplete("authority flags", err)
	}

	var issues []domain.RiskIssue
	if auth.MintAuthority {
		issues = append(issues, domain.RiskIssue{
			Kind:        domain.IssueMintAuthority,
			Severity:    domain.SeverityCritical,
			Description: "mint authority still active, supply can be inflated",
		})
	}
	if auth.FreezeAuthority {
		issues = append(issues, domain.RiskIssue{
			Kind:        domain.IssueFreezeAuthority,
			Severity:    domain.SeverityHigh,
			Description: "freeze authority still active, accounts can be frozen",
		})
	}
	return issues
}

func (g *Gate) checkLiquidity(asset *domain.AssetDescriptor) []domain.RiskIssue {
	if asset.LiquiditySOL == nil {
		// Mint-feed assets have no pool yet; nothing to check.
		return nil
	}
	if *asset.LiquiditySOL < g.thresholds.MinLiquiditySOL {
		return []domain.RiskIssue{{
			Kind:     domain.IssueLowLiquidity,
			Severity: domain.SeverityHigh,
			Description: fmt.Sprintf("liquidity %.2f SOL below floor %.2f SOL",
				*asset.LiquiditySOL, g.thresholds.MinLiquiditySOL),
		}}
	}
	return nil
}

func (g *Gate) checkHolders(ctx context.Context, asset *domain.AssetDescriptor) []domain.RiskIssue {
	dist, err := g.holders.Distribution(ctx, asset.Mint)
	if err != nil {
		return incomplete("holder distribution", err)
	}

	var issues []domain.RiskIssue
	if dist.HolderCount < g.thresholds.MinHolderCount {
		issues = append(issues, domain.RiskIssue{
			Kind:     domain.IssueLowHolderCount,
			Severity: domain.SeverityMedium,
			Description: fmt.Sprintf("%d holders below floor %d",
				dist.HolderCount, g.thresholds.MinHolderCount),
		})
	}
	if dist.TopHolderPct > g.thresholds.MaxTopHolderPct {
		issues = append(issues, domain.RiskIssue{
			Kind:     domain.IssueWhaleConcentration,
			Severity: domain.SeverityHigh,
			Description: fmt.Sprintf("top holder owns %.1f%%, ceiling is %.1f%%",
				dist.TopHolderPct, g.thresholds.MaxTopHolderPct),
		})
	}
	return issues
}

func (g *Gate) checkName(asset *domain.AssetDescriptor) []domain.RiskIssue {
	if scamPattern.MatchString(asset.Name) || scamPattern.MatchString(asset.Symbol) {
		return []domain.RiskIssue{{
			Kind:        domain.IssueScamNamePattern,
			Severity:    domain.SeverityMedium,
			Description: fmt.Sprintf("name %q matches a known scam pattern", asset.DisplayName()),
		}}
	}
	return nil
}

func (g *Gate) checkAge(asset *domain.AssetDescriptor) []domain.RiskIssue {
	if g.thresholds.MinAge <= 0 {
		return nil
	}
	age := g.now().Sub(time.UnixMilli(asset.CreatedAt))
	if age < g.thresholds.MinAge {
		return []domain.RiskIssue{{
			Kind:        domain.IssueTooNew,
			Severity:    domain.SeverityLow,
			Description: fmt.Sprintf("asset is %s old, minimum is %s", age.Round(time.Second), g.thresholds.MinAge),
		}}
	}
	return nil
}

func incomplete(check string, err error) []domain.RiskIssue {
	return []domain.RiskIssue{{
		Kind:        domain.IssueAnalysisIncomplete,
		Severity:    domain.SeverityMedium,
		Description: fmt.Sprintf("%s check failed: %v", check, err),
	}}
}
