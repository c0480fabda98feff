package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full bot configuration.
type Config struct {
	Trading TradingConfig `yaml:"trading"`
	Venues  VenuesConfig  `yaml:"venues"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// TradingConfig controls the scan band and the lifecycle engine.
type TradingConfig struct {
	MinPrice        float64 `yaml:"min_price"`        // scan band low, inclusive
	MaxPrice        float64 `yaml:"max_price"`        // scan band high, inclusive
	PositionSize    float64 `yaml:"position_size"`    // notional per position, USD
	MaxPositions    int     `yaml:"max_positions"`    // open-position cap
	FeeRate         float64 `yaml:"fee_rate"`         // fraction of winning profit
	MinLiquidity    float64 `yaml:"min_liquidity"`    // USD
	MinVolume24h    float64 `yaml:"min_volume_24h"`   // USD
	IntervalSeconds int     `yaml:"interval_seconds"` // continuous-mode sleep
}

// VenuesConfig enables and points at the market sources.
type VenuesConfig struct {
	Polymarket PolymarketConfig `yaml:"polymarket"`
	Kalshi     KalshiConfig     `yaml:"kalshi"`
}

// PolymarketConfig holds the Polymarket API settings.
type PolymarketConfig struct {
	Enabled   bool   `yaml:"enabled"`
	GammaBase string `yaml:"gamma_base"`
}

// KalshiConfig holds the Kalshi API settings. Credentials come from the
// environment (KALSHI_API_KEY_ID, KALSHI_PRIVATE_KEY), never from the YAML.
type KalshiConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIBase string `yaml:"api_base"`
}

// StorageConfig controls where positions are persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // path to the SQLite file, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if present. Environment
// variables override matching YAML values.
func Load(path string) (*Config, error) {
	// Load .env if present; missing file is fine.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if cfg.Trading.MinPrice >= cfg.Trading.MaxPrice {
		return nil, fmt.Errorf("config.Load: min_price %.3f must be below max_price %.3f",
			cfg.Trading.MinPrice, cfg.Trading.MaxPrice)
	}

	return &cfg, nil
}

// ScanInterval returns the continuous-mode interval as a time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Trading.IntervalSeconds) * time.Second
}

// KalshiAPIKeyID returns the Kalshi API key id from the environment.
func KalshiAPIKeyID() string {
	return os.Getenv("KALSHI_API_KEY_ID")
}

// KalshiPrivateKey returns the PEM-encoded Kalshi private key from the
// environment.
func KalshiPrivateKey() []byte {
	return []byte(os.Getenv("KALSHI_PRIVATE_KEY"))
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SUREBET_DB"); v != "" {
		cfg.Storage.DSN = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Trading.MinPrice <= 0 {
		cfg.Trading.MinPrice = 0.97
	}
	if cfg.Trading.MaxPrice <= 0 {
		cfg.Trading.MaxPrice = 0.98
	}
	if cfg.Trading.PositionSize <= 0 {
		cfg.Trading.PositionSize = 100
	}
	if cfg.Trading.MaxPositions <= 0 {
		cfg.Trading.MaxPositions = 10
	}
	if cfg.Trading.FeeRate <= 0 {
		cfg.Trading.FeeRate = 0.02
	}
	if cfg.Trading.MinLiquidity <= 0 {
		cfg.Trading.MinLiquidity = 1000
	}
	if cfg.Trading.MinVolume24h <= 0 {
		cfg.Trading.MinVolume24h = 500
	}
	if cfg.Trading.IntervalSeconds <= 0 {
		cfg.Trading.IntervalSeconds = 60
	}
	if cfg.Venues.Polymarket.GammaBase == "" {
		cfg.Venues.Polymarket.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Venues.Kalshi.APIBase == "" {
		cfg.Venues.Kalshi.APIBase = "https://api.elections.kalshi.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "surebet.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
