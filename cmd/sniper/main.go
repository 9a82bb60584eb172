// Package main runs the token sniper: feed intake, dedup, risk gating,
// bounded-concurrency acquisition and automatic take-profit/stop-loss exits.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"solana-sniper/internal/chain"
	"solana-sniper/internal/chain/stub"
	"solana-sniper/internal/config"
	"solana-sniper/internal/dedup"
	"solana-sniper/internal/ledger"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/pipeline"
	"solana-sniper/internal/riskgate"
	"solana-sniper/internal/scheduler"
	"solana-sniper/internal/stats"
	"solana-sniper/internal/storage"
	chstore "solana-sniper/internal/storage/clickhouse"
	"solana-sniper/internal/storage/memory"
	"solana-sniper/internal/storage/migrations"
	"solana-sniper/internal/storage/postgres"
	"solana-sniper/internal/watch"
)

// Programs whose logs announce new tradable assets.
const (
	tokenProgramID   = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	raydiumAMMProgID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	walletSOL := flag.Float64("wallet-sol", 10, "Simulated wallet balance in SOL")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading config failed")
	}
	if err := cfg.RequireFeed(); err != nil {
		logger.Fatal().Err(err).Msg("loading config failed")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Storage: Postgres when configured, in-memory otherwise.
	var positionStore storage.PositionStore
	var outcomeStore storage.OutcomeStore
	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connecting to postgres failed")
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("postgres migrations failed")
		}
		positionStore = postgres.NewPositionStore(pool)
		outcomeStore = postgres.NewOutcomeStore(pool)
		logger.Info().Msg("using postgres storage")
	} else {
		positionStore = memory.NewPositionStore()
		outcomeStore = memory.NewOutcomeStore()
		logger.Info().Msg("using in-memory storage")
	}

	// Optional ClickHouse outcome archive.
	var archive storage.OutcomeArchive
	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connecting to clickhouse failed")
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Fatal().Err(err).Msg("clickhouse migrations failed")
		}
		archive = chstore.NewOutcomeArchive(conn)
		logger.Info().Msg("outcome archive enabled")
	}

	// Dedup: Redis when configured so multiple instances share one window.
	var markers dedup.MarkerStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
		}
		defer client.Close()
		markers = dedup.NewRedisStore(client)
		logger.Info().Msg("using redis dedup store")
	} else {
		memStore := dedup.NewMemoryStore()
		defer memStore.Close()
		markers = memStore
	}

	// Chain collaborators. Execution and pricing are simulated; the wallet
	// starts with the configured balance and positions trade against it.
	wallet := stub.NewWallet(*walletSOL)
	oracle := stub.NewOracle()
	fills := stub.NewExecutor(wallet, 1_000_000)
	fills.SetTradeParams(cfg.MaxSlippagePct, cfg.PriorityFeeLamports)
	executor := chain.NewGuardedExecutor(
		fills,
		chain.NewBreaker(chain.BreakerOptions{
			Name:       "executor",
			MaxRetries: cfg.RetryAttempts,
			RetryDelay: 500 * time.Millisecond,
			Logger:     logger,
		}),
	)
	guardedOracle := chain.NewGuardedOracle(oracle, chain.NewBreaker(chain.BreakerOptions{
		Name:       "oracle",
		MaxRetries: cfg.RetryAttempts,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logger,
	}))
	disposal := stub.NewDisposal(oracle, wallet)
	notifier := chain.NewLogSink(logger)

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

	book := ledger.NewLedger(positionStore, logger)
	aggregator := stats.NewAggregator(nil)

	sched := scheduler.New(scheduler.Options{
		Gate:          gate,
		Wallet:        wallet,
		Executor:      executor,
		Ledger:        book,
		Stats:         aggregator,
		Outcomes:      outcomeStore,
		Archive:       archive,
		Notifier:      notifier,
		MaxConcurrent: cfg.MaxConcurrent,
		SpendSOL:      cfg.MaxBuySOL,
		PacingDelay:   cfg.SnipeDelay.Std(),
		QueueSettle:   cfg.QueueSettle.Std(),
		Logger:        logger,
	})

	evaluator := ledger.NewExitEvaluator(ledger.ExitOptions{
		Ledger:        book,
		Oracle:        guardedOracle,
		Disposal:      disposal,
		Stats:         aggregator,
		Notifier:      notifier,
		TakeProfitPct: cfg.TakeProfitPct,
		StopLossPct:   cfg.StopLossPct,
		Interval:      cfg.SweepInterval.Std(),
		Enabled:       cfg.AutoExit,
		Logger:        logger,
	})

	source, err := watch.NewWSSource(ctx, cfg.WSURL,
		[]watch.ProgramFeed{
			{Address: tokenProgramID, Source: "MINT_FEED"},
			{Address: raydiumAMMProgID, Source: "LIQUIDITY_FEED"},
		},
		watch.NewMintLogParser(tokenProgramID, raydiumAMMProgID),
		nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("ws_url", cfg.WSURL).Msg("connecting to feed failed")
	}

	p := pipeline.New(pipeline.Options{
		Source:     source,
		Dedup:      markers,
		DedupTTL:   cfg.DedupTTL.Std(),
		Scheduler:  sched,
		Evaluator:  evaluator,
		Ledger:     book,
		Stats:      aggregator,
		RatePerSec: cfg.RatePerSec,
		RateBurst:  cfg.RateBurst,
		Logger:     logger,
	})

	go serveMonitoring(cfg.MetricsAddr, p, logger)

	p.Start()
	logger.Info().
		Str("ws_url", cfg.WSURL).
		Float64("max_buy_sol", cfg.MaxBuySOL).
		Int("max_concurrent", cfg.MaxConcurrent).
		Msg("sniper running")

	<-ctx.Done()
	logger.Info().Msg("shutting down, draining in-flight acquisitions")
	p.Stop()

	if status, err := p.Snapshot(context.Background()); err == nil {
		logger.Info().
			Int("attempts", status.Stats.Attempts).
			Int("successes", status.Stats.Successes).
			Int("failures", status.Stats.Failures).
			Float64("realized_pnl_sol", status.Stats.RealizedPnLSOL).
			Int("open_positions", len(status.OpenPositions)).
			Msg("final stats")
	}
}

// serveMonitoring exposes Prometheus metrics and a JSON status snapshot.
func serveMonitoring(addr string, p *pipeline.Pipeline, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status, err := p.Snapshot(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("snapshot: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Str("addr", addr).Msg("monitoring server failed")
	}
}
