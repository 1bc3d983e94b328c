package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProviderConfig holds the failover and throttling policy for one provider.
type ProviderConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// Config holds all configuration for the market data service.
type Config struct {
	// API tokens
	TushareToken string `mapstructure:"tushare_token"`

	// Base URLs for API endpoints (configurable for testing)
	TushareBaseURL   string `mapstructure:"tushare_base_url"`
	EastmoneyBaseURL string `mapstructure:"eastmoney_base_url"`
	TencentBaseURL   string `mapstructure:"tencent_base_url"`

	// ProviderPriority is the failover order; earlier entries are tried
	// first for every kind they serve.
	ProviderPriority []string                  `mapstructure:"provider_priority"`
	Providers        map[string]ProviderConfig `mapstructure:"providers"`

	// Cache TTLs per data kind
	TTLDailyBars     time.Duration `mapstructure:"ttl_daily_bars"`
	TTLWeeklyBars    time.Duration `mapstructure:"ttl_weekly_bars"`
	TTLFundamentals  time.Duration `mapstructure:"ttl_fundamentals"`
	TTLIntradayQuote time.Duration `mapstructure:"ttl_intraday_quote"`
	TTLOrderBook     time.Duration `mapstructure:"ttl_order_book"`
	TTLMoneyFlow     time.Duration `mapstructure:"ttl_money_flow"`

	// MaxConcurrentFetches bounds simultaneous outbound network calls
	// across all providers, the primary defense against throttling.
	MaxConcurrentFetches int64 `mapstructure:"max_concurrent_fetches"`

	// ServeStaleOnFailure lets the cache return an expired entry, marked
	// stale, when every provider fails.
	ServeStaleOnFailure bool `mapstructure:"serve_stale_on_failure"`

	// Watchlist symbols pre-warmed by the refresher and fetched by the
	// one-shot run.
	Watchlist []string `mapstructure:"watchlist"`

	// RefreshCron schedules the watchlist pre-warm; empty disables it.
	RefreshCron string `mapstructure:"refresh_cron"`
}

// Load reads configuration from environment variables and optional config
// file. Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - TUSHARE_TOKEN (required)
//   - TUSHARE_BASE_URL (optional, defaults to production)
//   - EASTMONEY_BASE_URL (optional, defaults to production)
//   - TENCENT_BASE_URL (optional, defaults to production)
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("")
	v.AutomaticEnv()

	// Base URL defaults
	v.SetDefault("tushare_base_url", "https://api.tushare.pro")
	v.SetDefault("eastmoney_base_url", "https://push2.eastmoney.com")
	v.SetDefault("tencent_base_url", "https://qt.gtimg.cn")

	// Failover defaults: Tushare primary for history and fundamentals,
	// Eastmoney covers everything as fallback, Tencent backs the
	// realtime kinds.
	v.SetDefault("provider_priority", []string{"tushare", "eastmoney", "tencent"})

	// TTL defaults: 5 minutes for technical/intraday kinds, 10 minutes
	// for fundamentals.
	v.SetDefault("ttl_daily_bars", "5m")
	v.SetDefault("ttl_weekly_bars", "5m")
	v.SetDefault("ttl_fundamentals", "10m")
	v.SetDefault("ttl_intraday_quote", "5m")
	v.SetDefault("ttl_order_book", "5m")
	v.SetDefault("ttl_money_flow", "5m")

	v.SetDefault("max_concurrent_fetches", 8)
	v.SetDefault("serve_stale_on_failure", false)
	v.SetDefault("refresh_cron", "")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.stockdata")

	_ = v.ReadInConfig()

	v.BindEnv("tushare_token", "TUSHARE_TOKEN")
	v.BindEnv("tushare_base_url", "TUSHARE_BASE_URL")
	v.BindEnv("eastmoney_base_url", "EASTMONEY_BASE_URL")
	v.BindEnv("tencent_base_url", "TENCENT_BASE_URL")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var missing []string
	if config.TushareToken == "" {
		missing = append(missing, "TUSHARE_TOKEN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func validate(cfg *Config) error {
	if len(cfg.ProviderPriority) == 0 {
		return fmt.Errorf("provider_priority must not be empty")
	}
	seen := make(map[string]bool, len(cfg.ProviderPriority))
	for _, name := range cfg.ProviderPriority {
		if seen[name] {
			return fmt.Errorf("provider_priority lists %q twice", name)
		}
		seen[name] = true
	}
	if cfg.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("max_concurrent_fetches must be positive, got %d", cfg.MaxConcurrentFetches)
	}
	return nil
}

// ProviderFor returns the per-provider policy with defaults applied.
func (c *Config) ProviderFor(name string) ProviderConfig {
	pc := c.Providers[name]
	if pc.Timeout <= 0 {
		pc.Timeout = 10 * time.Second
	}
	if pc.MaxRetries <= 0 {
		pc.MaxRetries = 2
	}
	if pc.Burst <= 0 {
		pc.Burst = 1
	}
	return pc
}
