// Package config provides configuration management for the trading assistant.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	User          UserConfig         `mapstructure:"user"`
	Backend       BackendConfig      `mapstructure:"backend"`
	Feed          FeedConfig         `mapstructure:"feed"`
	Poll          PollConfig         `mapstructure:"poll"`
	UI            UIConfig           `mapstructure:"ui"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// UserConfig identifies the user every backend request is made for.
type UserConfig struct {
	ID string `mapstructure:"id"`
}

// BackendConfig holds the trade and AI-trade backend endpoints.
type BackendConfig struct {
	TradeBaseURL   string        `mapstructure:"trade_base_url"`
	AiTradeBaseURL string        `mapstructure:"ai_trade_base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec int           `mapstructure:"requests_per_sec"`
}

// FeedConfig holds the live feed connection settings.
type FeedConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BaseDelay    time.Duration `mapstructure:"base_delay"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// PollConfig holds the trade-list polling settings.
type PollConfig struct {
	Interval           time.Duration `mapstructure:"interval"`
	OutsideMarketHours bool          `mapstructure:"outside_market_hours"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Level    string         `mapstructure:"level"` // all, trades_only, errors_only
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/tradeassist"
	}
	return filepath.Join(home, ".config", "tradeassist")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Missing config file is fine; defaults plus env overrides apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.trade_base_url", "http://localhost:8080")
	v.SetDefault("backend.ai_trade_base_url", "http://localhost:8081")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.requests_per_sec", 5)
	v.SetDefault("feed.url", "ws://localhost:8090/feed")
	v.SetDefault("feed.max_retries", 5)
	v.SetDefault("feed.base_delay", time.Second)
	v.SetDefault("feed.read_timeout", 60*time.Second)
	v.SetDefault("feed.write_timeout", 10*time.Second)
	v.SetDefault("feed.ping_interval", 20*time.Second)
	v.SetDefault("poll.interval", 15*time.Second)
	v.SetDefault("poll.outside_market_hours", false)
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.level", "trades_only")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADEASSIST_USER_ID"); v != "" {
		cfg.User.ID = v
	}
	if v := os.Getenv("TRADEASSIST_TRADE_URL"); v != "" {
		cfg.Backend.TradeBaseURL = v
	}
	if v := os.Getenv("TRADEASSIST_AI_TRADE_URL"); v != "" {
		cfg.Backend.AiTradeBaseURL = v
	}
	if v := os.Getenv("TRADEASSIST_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Backend.TradeBaseURL == "" {
		return fmt.Errorf("backend.trade_base_url is required")
	}
	if c.Backend.AiTradeBaseURL == "" {
		return fmt.Errorf("backend.ai_trade_base_url is required")
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Poll.Interval < 5*time.Second {
		return fmt.Errorf("poll.interval must be at least 5s")
	}
	if c.Backend.RequestsPerSec <= 0 {
		return fmt.Errorf("backend.requests_per_sec must be positive")
	}
	if c.Notifications.Telegram.Enabled && c.Notifications.Telegram.BotToken == "" {
		return fmt.Errorf("notifications.telegram.bot_token is required when telegram is enabled")
	}
	return nil
}
