package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/ipsa/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment" validate:"oneof=development production"`
	Logging     LoggingConfig  `toml:"logging"`
	Storage     StorageConfig  `toml:"storage"`
	Telegram    TelegramConfig `toml:"telegram"`
	EODHD       EODHDConfig    `toml:"eodhd"`
	News        NewsConfig     `toml:"news"`
	Watchers    WatchersConfig `toml:"watchers"`
	Retry       RetryConfig    `toml:"retry"`
	Claude      ClaudeConfig   `toml:"claude"`
	Defaults    DefaultsConfig `toml:"defaults"`
	Monitor     MonitorConfig  `toml:"monitor"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output" validate:"dive,oneof=stdout console file"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// TelegramConfig configures the notification sink. An empty token logs
// notifications instead of sending them.
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	Debug    bool   `toml:"debug"`
}

type EODHDConfig struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url" validate:"omitempty,url"`
	Exchange  string `toml:"exchange"` // Default exchange for bare tickers (e.g. "US")
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit" validate:"gte=0"` // Requests per second
}

type NewsConfig struct {
	Sources   []string `toml:"sources" validate:"dive,url"`
	UserAgent string   `toml:"user_agent"`
	Timeout   string   `toml:"timeout"`
	RateLimit string   `toml:"rate_limit"` // Minimum delay between page fetches
}

type WatchersConfig struct {
	Price PriceWatcherConfig `toml:"price"`
	News  NewsWatcherConfig  `toml:"news"`
}

type PriceWatcherConfig struct {
	Interval   string `toml:"interval"`    // e.g., "30s"
	MaxBackoff string `toml:"max_backoff"` // Cap for the inter-cycle backoff
}

type NewsWatcherConfig struct {
	Interval        string `toml:"interval"`
	MaxBackoff      string `toml:"max_backoff"`
	RelevanceFilter bool   `toml:"relevance_filter"` // Only deliver articles mentioning a held symbol
}

// RetryConfig controls the intra-call retry of a single fetch
type RetryConfig struct {
	MaxAttempts    int    `toml:"max_attempts" validate:"gte=1,lte=10"`
	BaseDelay      string `toml:"base_delay"`
	MaxDelay       string `toml:"max_delay"`
	AttemptTimeout string `toml:"attempt_timeout"`
}

type ClaudeConfig struct {
	APIKey    string `toml:"api_key"` // Enables news annotation when set
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens" validate:"gte=0"`
	Timeout   string `toml:"timeout"`
}

// DefaultsConfig applies to users without their own settings
type DefaultsConfig struct {
	Timezone   string `toml:"timezone" validate:"required"`
	NewsWindow string `toml:"news_window" validate:"required"`
}

type MonitorConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule, e.g. "@every 60s"
}

// DefaultNewsSources are the investing.com sections polled when none are configured
var DefaultNewsSources = []string{
	"https://www.investing.com/news/",
	"https://www.investing.com/news/forex-news/",
	"https://www.investing.com/news/commodities-news/",
	"https://www.investing.com/news/stock-market-news/",
	"https://www.investing.com/news/economic-indicators/",
	"https://www.investing.com/news/economy/",
	"https://www.investing.com/news/cryptocurrency-news/",
}

func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		EODHD: EODHDConfig{
			BaseURL:   "https://eodhd.com/api",
			Exchange:  "US",
			Timeout:   "30s",
			RateLimit: 10,
		},
		News: NewsConfig{
			Sources:   append([]string(nil), DefaultNewsSources...),
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:   "30s",
			RateLimit: "1s",
		},
		Watchers: WatchersConfig{
			Price: PriceWatcherConfig{
				Interval:   "30s",
				MaxBackoff: "10m",
			},
			News: NewsWatcherConfig{
				Interval:   "60s",
				MaxBackoff: "15m",
			},
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			BaseDelay:      "1s",
			MaxDelay:       "10s",
			AttemptTimeout: "20s",
		},
		Claude: ClaudeConfig{
			Model:     "claude-haiku-4-5",
			MaxTokens: 64,
			Timeout:   "30s",
		},
		Defaults: DefaultsConfig{
			Timezone:   "UTC",
			NewsWindow: "1 days",
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Schedule: "@every 60s",
		},
	}
}

// LoadFromFiles loads configuration with priority default -> files (in order) -> env.
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("IPSA_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("IPSA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("IPSA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if badgerPath := os.Getenv("IPSA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Telegram token also honours the conventional BOT_TOKEN name
	if token := os.Getenv("IPSA_TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	} else if token := os.Getenv("BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	}

	if apiKey := os.Getenv("IPSA_EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	} else if apiKey := os.Getenv("EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	}
	if exchange := os.Getenv("IPSA_EODHD_EXCHANGE"); exchange != "" {
		config.EODHD.Exchange = exchange
	}

	if apiKey := os.Getenv("IPSA_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("IPSA_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	if interval := os.Getenv("IPSA_PRICE_INTERVAL"); interval != "" {
		config.Watchers.Price.Interval = interval
	}
	if interval := os.Getenv("IPSA_NEWS_INTERVAL"); interval != "" {
		config.Watchers.News.Interval = interval
	}
	if relevance := os.Getenv("IPSA_NEWS_RELEVANCE_FILTER"); relevance != "" {
		if rf, err := strconv.ParseBool(relevance); err == nil {
			config.Watchers.News.RelevanceFilter = rf
		}
	}

	if attempts := os.Getenv("IPSA_RETRY_MAX_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil {
			config.Retry.MaxAttempts = a
		}
	}

	if tz := os.Getenv("IPSA_DEFAULT_TIMEZONE"); tz != "" {
		config.Defaults.Timezone = tz
	}
	if window := os.Getenv("IPSA_DEFAULT_NEWS_WINDOW"); window != "" {
		config.Defaults.NewsWindow = window
	}
}

// ApplyFlagOverrides applies command-line overrides (highest priority)
func ApplyFlagOverrides(config *Config, logLevel string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// Validate checks struct tags, duration strings and the monitor schedule
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", interfaces.ErrConfiguration, err)
	}

	durations := map[string]string{
		"eodhd.timeout":              c.EODHD.Timeout,
		"news.timeout":               c.News.Timeout,
		"news.rate_limit":            c.News.RateLimit,
		"watchers.price.interval":    c.Watchers.Price.Interval,
		"watchers.price.max_backoff": c.Watchers.Price.MaxBackoff,
		"watchers.news.interval":     c.Watchers.News.Interval,
		"watchers.news.max_backoff":  c.Watchers.News.MaxBackoff,
		"retry.base_delay":           c.Retry.BaseDelay,
		"retry.max_delay":            c.Retry.MaxDelay,
		"retry.attempt_timeout":      c.Retry.AttemptTimeout,
		"claude.timeout":             c.Claude.Timeout,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			return fmt.Errorf("%w: invalid duration for %s: %q", interfaces.ErrConfiguration, name, value)
		}
	}

	if c.Monitor.Enabled {
		if _, err := cron.ParseStandard(c.Monitor.Schedule); err != nil {
			return fmt.Errorf("%w: invalid monitor schedule %q: %w", interfaces.ErrConfiguration, c.Monitor.Schedule, err)
		}
	}

	return nil
}

// ParseDurationOr parses s, returning fallback when s is empty or invalid
func ParseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
