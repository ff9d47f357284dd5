// Package config handles configuration loading for insiderwatch.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Edgar    EdgarConfig    `mapstructure:"edgar"    yaml:"edgar"`
	Monitor  MonitorConfig  `mapstructure:"monitor"  yaml:"monitor"`
	Alert    AlertConfig    `mapstructure:"alert"    yaml:"alert"`
	Notify   NotifyConfig   `mapstructure:"notify"   yaml:"notify"`
	Screener ScreenerConfig `mapstructure:"screener" yaml:"screener"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// EdgarConfig holds SEC EDGAR endpoint settings.
type EdgarConfig struct {
	FeedURL   string `mapstructure:"feed_url"   yaml:"feed_url"`
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"` // SEC policy: identify yourself
}

// MonitorConfig holds the ingestion pipeline settings.
type MonitorConfig struct {
	StatePath      string `mapstructure:"state_path"       yaml:"state_path"`
	LogPath        string `mapstructure:"log_path"         yaml:"log_path"`
	HistoryDays    int    `mapstructure:"history_days"     yaml:"history_days"`
	MaxHistoryRows int    `mapstructure:"max_history_rows" yaml:"max_history_rows"`
	MaxLivePerRun  int    `mapstructure:"max_live_per_run" yaml:"max_live_per_run"`
	RequestDelayMs int    `mapstructure:"request_delay_ms" yaml:"request_delay_ms"`
	SeenPolicy     string `mapstructure:"seen_policy"      yaml:"seen_policy"`
}

// AlertConfig holds the notification rule.
type AlertConfig struct {
	Enabled         bool     `mapstructure:"enabled"          yaml:"enabled"`
	Tickers         []string `mapstructure:"tickers"          yaml:"tickers"` // empty = allow all
	TransactionCode string   `mapstructure:"transaction_code" yaml:"transaction_code"`
	MinValueUSD     float64  `mapstructure:"min_value_usd"    yaml:"min_value_usd"`
}

// NotifyConfig holds outbound mail settings. The SMTP password is never read
// from the config file, only from the environment.
type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"   yaml:"enabled"`
	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" yaml:"smtp_port"`
	From     string `mapstructure:"from"      yaml:"from"`
	To       string `mapstructure:"to"        yaml:"to"`
	Username string `mapstructure:"username"  yaml:"username"`
	Password string `mapstructure:"-"         yaml:"-"`
}

// ScreenerConfig holds settings for the legacy OpenInsider CSV watcher.
type ScreenerConfig struct {
	URL            string `mapstructure:"url"               yaml:"url"`
	UserAgent      string `mapstructure:"user_agent"        yaml:"user_agent"`
	StatePath      string `mapstructure:"state_path"        yaml:"state_path"`
	MaxRowsToTrack int    `mapstructure:"max_rows_to_track" yaml:"max_rows_to_track"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.insiderwatch/config.yaml (home directory)
//  3. /etc/insiderwatch/config.yaml (system)
//
// Environment variables override config file values.
// Format: INSIDERWATCH_<SECTION>_<KEY>, e.g., INSIDERWATCH_EDGAR_FEED_URL
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".insiderwatch"))
	v.AddConfigPath("/etc/insiderwatch")

	v.SetEnvPrefix("INSIDERWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("INSIDERWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Validate checks the configuration required to run the monitor. Missing
// required values abort the run before any state is touched.
func (c *Config) Validate() error {
	if c.Edgar.FeedURL == "" {
		return fmt.Errorf("edgar.feed_url is required")
	}
	if c.Edgar.UserAgent == "" {
		return fmt.Errorf("edgar.user_agent is required (SEC policy: identify your requests)")
	}
	if c.Notify.Enabled {
		if c.Notify.SMTPHost == "" || c.Notify.From == "" || c.Notify.To == "" {
			return fmt.Errorf("notify.smtp_host, notify.from and notify.to are required when notify.enabled")
		}
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// EDGAR defaults. The feed URL default is empty: it names what to watch
	// and must come from the config file or INSIDERWATCH_EDGAR_FEED_URL.
	// Registering the key is what lets AutomaticEnv surface the env value.
	v.SetDefault("edgar.feed_url", "")
	v.SetDefault("edgar.user_agent", "")

	// Monitor defaults
	v.SetDefault("monitor.state_path", "./data/state.json")
	v.SetDefault("monitor.log_path", "./data/filings.jsonl")
	v.SetDefault("monitor.history_days", 120)
	v.SetDefault("monitor.max_history_rows", 50000)
	v.SetDefault("monitor.max_live_per_run", 20)
	v.SetDefault("monitor.request_delay_ms", 350)
	v.SetDefault("monitor.seen_policy", "mark-seen-before-fetch")

	// Alert defaults: open-market purchases of any size, any ticker.
	v.SetDefault("alert.enabled", true)
	v.SetDefault("alert.transaction_code", "P")
	v.SetDefault("alert.min_value_usd", 0)

	// Notify defaults
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.smtp_port", 587)

	// Legacy screener defaults
	v.SetDefault("screener.user_agent", "Mozilla/5.0")
	v.SetDefault("screener.state_path", "./data/screener.json")
	v.SetDefault("screener.max_rows_to_track", 300)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// The SMTP password is supplied out-of-band only.
func overrideFromEnv(cfg *Config) {
	if pw := os.Getenv("INSIDERWATCH_NOTIFY_SMTP_PASSWORD"); pw != "" {
		cfg.Notify.Password = pw
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
