// Package config loads sniper configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML parsing of values like "45s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all sniper settings.
type Config struct {
	// Endpoints
	RPCURL string `yaml:"rpc_url"`
	WSURL  string `yaml:"ws_url"`

	// Acquisition
	MaxBuySOL           float64  `yaml:"max_buy_sol"`
	MaxConcurrent       int      `yaml:"max_concurrent"`
	SnipeDelay          Duration `yaml:"snipe_delay"`
	QueueSettle         Duration `yaml:"queue_settle"`
	RetryAttempts       int      `yaml:"retry_attempts"`
	MaxSlippagePct      float64  `yaml:"max_slippage_pct"`
	PriorityFeeLamports int64    `yaml:"priority_fee_lamports"`

	// Risk gate
	MinLiquiditySOL  float64  `yaml:"min_liquidity_sol"`
	MinHolderCount   int      `yaml:"min_holder_count"`
	MaxTopHolderPct  float64  `yaml:"max_top_holder_pct"`
	MinTokenAge      Duration `yaml:"min_token_age"`
	CreatorDenylist  []string `yaml:"creator_denylist"`
	CreatorAllowlist []string `yaml:"creator_allowlist"`

	// Exit policy
	TakeProfitPct float64  `yaml:"take_profit_pct"`
	StopLossPct   float64  `yaml:"stop_loss_pct"`
	AutoExit      bool     `yaml:"auto_exit"`
	SweepInterval Duration `yaml:"sweep_interval"`

	// Intake
	DedupTTL   Duration `yaml:"dedup_ttl"`
	RatePerSec float64  `yaml:"rate_per_sec"`
	RateBurst  int      `yaml:"rate_burst"`

	// Infrastructure (all optional; memory fallbacks are used when empty)
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	MetricsAddr   string `yaml:"metrics_addr"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		MaxBuySOL:           0.1,
		MaxConcurrent:       3,
		SnipeDelay:          Duration(1 * time.Second),
		QueueSettle:         Duration(100 * time.Millisecond),
		RetryAttempts:       3,
		MaxSlippagePct:      5,
		PriorityFeeLamports: 100_000,
		MinLiquiditySOL:     5,
		MinHolderCount:      10,
		MaxTopHolderPct:     80,
		MinTokenAge:         Duration(5 * time.Minute),
		TakeProfitPct:       100,
		StopLossPct:         50,
		AutoExit:            true,
		SweepInterval:       Duration(30 * time.Second),
		DedupTTL:            Duration(45 * time.Second),
		RatePerSec:          20,
		RateBurst:           40,
		MetricsAddr:         ":9100",
		LogLevel:            "info",
	}
}

// Load reads configuration from path (optional), overlays environment
// variables and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays SNIPER_* environment variables over file values.
func (c *Config) applyEnv() {
	setString(&c.RPCURL, "SNIPER_RPC_URL")
	setString(&c.WSURL, "SNIPER_WS_URL")
	setString(&c.PostgresDSN, "SNIPER_POSTGRES_DSN")
	setString(&c.ClickhouseDSN, "SNIPER_CLICKHOUSE_DSN")
	setString(&c.RedisAddr, "SNIPER_REDIS_ADDR")
	setString(&c.MetricsAddr, "SNIPER_METRICS_ADDR")
	setString(&c.LogLevel, "SNIPER_LOG_LEVEL")
	setFloat(&c.MaxBuySOL, "SNIPER_MAX_BUY_SOL")
	setFloat(&c.MaxSlippagePct, "SNIPER_MAX_SLIPPAGE_PCT")
	setInt64(&c.PriorityFeeLamports, "SNIPER_PRIORITY_FEE_LAMPORTS")
	setInt(&c.MaxConcurrent, "SNIPER_MAX_CONCURRENT")
	setDuration(&c.DedupTTL, "SNIPER_DEDUP_TTL")
	setDuration(&c.SweepInterval, "SNIPER_SWEEP_INTERVAL")
	setDuration(&c.SnipeDelay, "SNIPER_SNIPE_DELAY")
	setBool(&c.AutoExit, "SNIPER_AUTO_EXIT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

// RequireFeed checks settings only the live pipeline needs. One-shot tools
// like cmd/assess load the same file without a feed endpoint.
func (c *Config) RequireFeed() error {
	if c.WSURL == "" {
		return fmt.Errorf("ws_url is required")
	}
	return nil
}

// Validate checks value ranges and address validity.
func (c *Config) Validate() error {
	if c.MaxBuySOL <= 0 {
		return fmt.Errorf("max_buy_sol must be positive, got %f", c.MaxBuySOL)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive, got %d", c.MaxConcurrent)
	}
	if c.MaxSlippagePct <= 0 || c.MaxSlippagePct > 100 {
		return fmt.Errorf("max_slippage_pct must be in (0,100], got %f", c.MaxSlippagePct)
	}
	if c.PriorityFeeLamports < 0 {
		return fmt.Errorf("priority_fee_lamports must not be negative, got %d", c.PriorityFeeLamports)
	}
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("take_profit_pct must be positive, got %f", c.TakeProfitPct)
	}
	if c.StopLossPct <= 0 || c.StopLossPct >= 100 {
		return fmt.Errorf("stop_loss_pct must be in (0,100), got %f", c.StopLossPct)
	}
	if c.DedupTTL <= 0 {
		return fmt.Errorf("dedup_ttl must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive")
	}

	for _, addr := range c.CreatorDenylist {
		if err := validateSignerAddress(addr); err != nil {
			return fmt.Errorf("creator_denylist entry %q: %w", addr, err)
		}
	}
	for _, addr := range c.CreatorAllowlist {
		if err := validateSignerAddress(addr); err != nil {
			return fmt.Errorf("creator_allowlist entry %q: %w", addr, err)
		}
	}

	return nil
}

// validateSignerAddress checks that addr is a 32-byte base58 value on the
// ed25519 curve. Creator addresses are signing keys, so off-curve values
// can only be configuration mistakes.
func validateSignerAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("not base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("decoded length %d, want 32", len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("not an ed25519 public key: %w", err)
	}
	return nil
}
