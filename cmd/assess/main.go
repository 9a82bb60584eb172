// Package main runs a single risk assessment against a token and prints
// the verdict as JSON. Useful for tuning thresholds before going live.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/chain/stub"
	"solana-sniper/internal/config"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/riskgate"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	mint := flag.String("mint", "", "Token mint address (required)")
	name := flag.String("name", "", "Token name")
	symbol := flag.String("symbol", "", "Token symbol")
	creator := flag.String("creator", "", "Creator address")
	liquidity := flag.Float64("liquidity", -1, "Pool liquidity in SOL (omit for mint-feed assets)")
	ageMinutes := flag.Int("age-minutes", 60, "Minutes since the asset was created")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if *mint == "" {
		logger.Fatal().Msg("-mint is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("loading config failed")
		}
		cfg = loaded
	}

	gate := riskgate.NewGate(riskgate.Options{
		Reputation:  riskgate.NewStaticReputation(cfg.CreatorDenylist, cfg.CreatorAllowlist),
		Authorities: stub.NewAuthorityReader(),
		Holders:     stub.NewHolderReader(riskgate.Distribution{HolderCount: 100, TopHolderPct: 10}),
		Thresholds: riskgate.Thresholds{
			MinLiquiditySOL: cfg.MinLiquiditySOL,
			MinHolderCount:  cfg.MinHolderCount,
			MaxTopHolderPct: cfg.MaxTopHolderPct,
			MinAge:          cfg.MinTokenAge.Std(),
		},
		Logger: logger,
	})

	asset := &domain.AssetDescriptor{
		Mint:      *mint,
		Name:      *name,
		Symbol:    *symbol,
		Creator:   *creator,
		CreatedAt: time.Now().Add(-time.Duration(*ageMinutes) * time.Minute).UnixMilli(),
		Source:    domain.SourceMintFeed,
	}
	if *liquidity >= 0 {
		asset.LiquiditySOL = liquidity
		asset.Source = domain.SourceLiquidityFeed
	}

	result := gate.Assess(context.Background(), asset)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatal().Err(err).Msg("encoding result failed")
	}

	if !result.Secure {
		os.Exit(1)
	}
}
