package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Haehnchen/crypto-trading-bot-sub003/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. BOT_ORDER_RETRY.
const EnvPrefix = "BOT_"

// Config holds every setting of the bot. Values come from the YAML file,
// then .env, then the process environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode string `yaml:"mode" env:"MODE" validate:"oneof=paper"`
	} `yaml:"trading"`

	Order OrderConfig `yaml:"order"`

	Tick struct {
		Ordering int `yaml:"ordering" env:"ORDERING" validate:"gt=0"` // ms
	} `yaml:"tick"`

	Logging struct {
		Level string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
		File  string `yaml:"file" env:"FILE"`
	} `yaml:"logging"`

	Metrics struct {
		Addr string `yaml:"addr" env:"ADDR"`
	} `yaml:"metrics"`

	Storage struct {
		Enabled bool   `yaml:"enabled" env:"ENABLED"`
		Path    string `yaml:"path" env:"PATH"`
	} `yaml:"storage"`

	Feed struct {
		Enabled  bool     `yaml:"enabled" env:"ENABLED"`
		Exchange string   `yaml:"exchange" env:"EXCHANGE" validate:"required_if=Enabled true"`
		WSURL    string   `yaml:"ws_url" env:"WS_URL" validate:"required_if=Enabled true"`
		InstType string   `yaml:"inst_type" env:"INST_TYPE"`
		Symbols  []string `yaml:"symbols" env:"SYMBOLS"`
	} `yaml:"feed"`

	StopLoss struct {
		Enabled    bool    `yaml:"enabled" env:"ENABLED"`
		Percent    float64 `yaml:"percent" env:"PERCENT" validate:"gte=0,lt=100"`
		IntervalMS int     `yaml:"interval_ms" env:"INTERVAL_MS" validate:"gt=0"`
	} `yaml:"stop_loss"`

	Exchanges struct {
		Paper PaperConfig `yaml:"paper"`
	} `yaml:"exchanges"`

	Pairs []PairEntry `yaml:"pairs" validate:"dive"`
}

// OrderConfig tunes placement retries and price following.
type OrderConfig struct {
	Retry              int `yaml:"retry" env:"RETRY" validate:"gte=0"`
	RetryMS            int `yaml:"retry_ms" env:"RETRY_MS" validate:"gte=0"`
	TickerPollMS       int `yaml:"ticker_poll_ms" env:"TICKER_POLL_MS" validate:"gt=0"`
	TickerPollAttempts int `yaml:"ticker_poll_attempts" env:"TICKER_POLL_ATTEMPTS" validate:"gt=0"`
	AdjustConcurrency  int `yaml:"adjust_concurrency" env:"ADJUST_CONCURRENCY" validate:"gt=0"`
}

// PaperConfig configures the simulated exchange.
type PaperConfig struct {
	Name            string  `yaml:"name" env:"NAME" validate:"required"`
	Balance         float64 `yaml:"balance" env:"BALANCE" validate:"gte=0"`
	TickSize        float64 `yaml:"tick_size" env:"TICK_SIZE" validate:"gt=0"`
	StepSize        float64 `yaml:"step_size" env:"STEP_SIZE" validate:"gt=0"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" validate:"gt=0"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" env:"RATE_LIMIT_PER_SEC" validate:"gt=0"`
}

// PairEntry is one configured trading pair.
type PairEntry struct {
	Exchange string `yaml:"exchange" validate:"required"`
	Symbol   string `yaml:"symbol" validate:"required"`
	Capital  struct {
		Kind   string  `yaml:"kind" validate:"oneof=asset currency balance"`
		Amount float64 `yaml:"amount" validate:"gt=0"`
	} `yaml:"capital"`
	// State starts the pair on boot when set.
	State string `yaml:"state" validate:"omitempty,oneof=long short close cancel"`
}

// DefaultConfig returns the settings used for anything the file leaves out.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "crypto-trading-bot"
	cfg.App.Version = "dev"
	cfg.Trading.Mode = "paper"
	cfg.Order = OrderConfig{
		Retry:              4,
		RetryMS:            1500,
		TickerPollMS:       200,
		TickerPollAttempts: 40,
		AdjustConcurrency:  8,
	}
	cfg.Tick.Ordering = 10800
	cfg.Logging.Level = "info"
	cfg.Storage.Path = "bot.db"
	cfg.Feed.Exchange = "paper"
	cfg.Feed.WSURL = "wss://ws.bitget.com/v2/ws/public"
	cfg.Feed.InstType = "USDT-FUTURES"
	cfg.StopLoss.Percent = 3
	cfg.StopLoss.IntervalMS = 30_000
	cfg.Exchanges.Paper = PaperConfig{
		Name:            "paper",
		Balance:         10_000,
		TickSize:        0.01,
		StepSize:        0.0001,
		RateLimitBurst:  5,
		RateLimitPerSec: 10,
	}
	return cfg
}

// LoadConfig reads path over DefaultConfig and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	// Sections are parsed one by one so the pair list stays file-only.
	sections := []struct {
		prefix string
		target any
	}{
		{"TRADING_", &cfg.Trading},
		{"ORDER_", &cfg.Order},
		{"TICK_", &cfg.Tick},
		{"LOG_", &cfg.Logging},
		{"METRICS_", &cfg.Metrics},
		{"STORAGE_", &cfg.Storage},
		{"FEED_", &cfg.Feed},
		{"STOP_LOSS_", &cfg.StopLoss},
		{"PAPER_", &cfg.Exchanges.Paper},
	}
	for _, s := range sections {
		if err := env.ParseWithOptions(s.target, env.Options{Prefix: EnvPrefix + s.prefix}); err != nil {
			return fmt.Errorf("parse env %s*: %w", EnvPrefix+s.prefix, err)
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks struct tags and the pair list.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Feed.Enabled && !hasPrefix(c.Feed.WSURL, "ws://") && !hasPrefix(c.Feed.WSURL, "wss://") {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}

	seen := make(map[string]struct{}, len(c.Pairs))
	for _, p := range c.Pairs {
		key := domain.PairKey(p.Exchange, p.Symbol)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate pair %s", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

func (o OrderConfig) RetryDelay() time.Duration {
	return time.Duration(o.RetryMS) * time.Millisecond
}

func (o OrderConfig) TickerPollInterval() time.Duration {
	return time.Duration(o.TickerPollMS) * time.Millisecond
}

// TickInterval is the period of the pair state tick.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Tick.Ordering) * time.Millisecond
}

func (c *Config) StopLossInterval() time.Duration {
	return time.Duration(c.StopLoss.IntervalMS) * time.Millisecond
}
