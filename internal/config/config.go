// Package config defines all configuration for the exchange core. Config is
// loaded from a YAML file (default: configs/config.yaml) with operational
// fields overridable via EXCHANGE_* environment variables, split into a
// Load step (read + unmarshal) and a Validate step (cross-field checks).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PriceSource selects the price-service provider.
type PriceSource string

const (
	PriceSourceSimulator PriceSource = "simulator"
	PriceSourceExternal  PriceSource = "external"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure.
type Config struct {
	Matching     MatchingConfig     `mapstructure:"matching"`
	PriceService PriceServiceConfig `mapstructure:"price_service"`
	Transport    TransportConfig    `mapstructure:"transport"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// MatchingConfig names the market-maker pseudo-account used by the matching
// engine to fill market orders.
type MatchingConfig struct {
	MarketMakerUserID int64 `mapstructure:"market_maker_user_id"`
}

// PriceServiceConfig tunes the price-distribution core.
// TickInterval and ExternalTimeout are YAML duration strings (e.g. "1s"),
// decoded via viper's default Unmarshal decode hooks, which include
// StringToTimeDurationHookFunc.
type PriceServiceConfig struct {
	Source           PriceSource   `mapstructure:"price_source"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	ExternalBaseURL  string        `mapstructure:"external_base_url"`
	ExternalTimeout  time.Duration `mapstructure:"external_timeout"`
	SupportedSymbols []string      `mapstructure:"supported_symbols"`
}

// TransportConfig controls the optional REST+WS wiring. /metrics is mounted
// on the same mux as the rest of the API, so there is no separate address
// for it.
type TransportConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig controls the slog handler (format/level).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("EXCHANGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("matching.market_maker_user_id", 0)
	v.SetDefault("price_service.price_source", string(PriceSourceSimulator))
	v.SetDefault("price_service.tick_interval", time.Second)
	v.SetDefault("price_service.external_timeout", 5*time.Second)
	v.SetDefault("transport.enabled", true)
	v.SetDefault("transport.listen_addr", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	switch c.PriceService.Source {
	case PriceSourceSimulator, PriceSourceExternal:
	default:
		return fmt.Errorf("price_service.price_source must be one of: simulator, external")
	}
	if c.PriceService.Source == PriceSourceExternal && c.PriceService.ExternalBaseURL == "" {
		return fmt.Errorf("price_service.external_base_url is required when price_source is external")
	}
	if c.PriceService.TickInterval <= 0 {
		return fmt.Errorf("price_service.tick_interval must be > 0")
	}
	return nil
}
