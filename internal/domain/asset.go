package domain

// FeedSource identifies which detector observed an asset.
type FeedSource string

const (
	// SourceMintFeed marks assets observed on the token mint program feed.
	SourceMintFeed FeedSource = "MINT_FEED"
	// SourceLiquidityFeed marks assets observed on an AMM liquidity pool feed.
	SourceLiquidityFeed FeedSource = "LIQUIDITY_FEED"
)

// AssetDescriptor describes a newly observed tradable token.
// Immutable once observed; the same asset may arrive from multiple feeds.
type AssetDescriptor struct {
	Mint         string     // token mint address (base58)
	Name         string     // optional token name
	Symbol       string     // optional token symbol
	Creator      string     // creator address (base58)
	Supply       int64      // total supply in base units
	Decimals     int        // token decimals
	CreatedAt    int64      // Unix timestamp in milliseconds
	LiquiditySOL *float64   // pool liquidity in SOL (nullable, liquidity feed only)
	Source       FeedSource // which feed reported the asset
}

// DisplayName returns the best available human-readable identifier.
func (a *AssetDescriptor) DisplayName() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	if a.Name != "" {
		return a.Name
	}
	if len(a.Mint) > 8 {
		return a.Mint[:8]
	}
	return a.Mint
}
