// Package config loads mochi settings from a TOML file and MOCHI_ environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mochi-browser/taskbridge/core"
)

// Config is the root application configuration.
type Config struct {
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	UI      UIConfig      `mapstructure:"ui"`
	State   StateConfig   `mapstructure:"state"`
}

// BridgeConfig selects and sizes the task backend.
type BridgeConfig struct {
	// Backend: auto, threaded or cooperative
	Backend string `mapstructure:"backend"`
	// Workers sizes the threaded pool; negative runs a goroutine per task
	Workers    int `mapstructure:"workers"`
	MaxPending int `mapstructure:"max_pending"`
	History    int `mapstructure:"history"`
}

// FetchConfig holds HTTP client settings.
type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxRetries   int           `mapstructure:"max_retries"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Namespace    string        `mapstructure:"namespace"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	// Theme: dark or light
	Theme string `mapstructure:"theme"`
}

// StateConfig locates the persisted session.
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Backend:    "auto",
			Workers:    4,
			MaxPending: 64,
			History:    100,
		},
		Fetch: FetchConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "mochi/0.1",
			MaxRetries:   0,
			MaxBodyBytes: 4 << 20,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{filepath.Join(dataDir(), "mochi.log")},
			Rotation: RotationConfig{
				Enable:     true,
				Filename:   filepath.Join(dataDir(), "mochi.log"),
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Metrics: MetricsConfig{
			Enabled:      false,
			Addr:         "127.0.0.1:9464",
			Namespace:    "taskbridge",
			PollInterval: 5 * time.Second,
		},
		UI:    UIConfig{Theme: "dark"},
		State: StateConfig{Path: filepath.Join(dataDir(), "state.toml")},
	}
}

// Load reads configuration from path if non-empty, otherwise from $MOCHI_CONFIG
// or ~/.config/mochi/config.toml. Only the default location may be missing.
// Env overrides use the prefix MOCHI_, e.g. MOCHI_BRIDGE_BACKEND=cooperative.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("MOCHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("bridge.backend", cfg.Bridge.Backend)
	v.SetDefault("bridge.workers", cfg.Bridge.Workers)
	v.SetDefault("bridge.max_pending", cfg.Bridge.MaxPending)
	v.SetDefault("bridge.history", cfg.Bridge.History)
	v.SetDefault("fetch.timeout", cfg.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", cfg.Fetch.UserAgent)
	v.SetDefault("fetch.max_retries", cfg.Fetch.MaxRetries)
	v.SetDefault("fetch.max_body_bytes", cfg.Fetch.MaxBodyBytes)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("metrics.namespace", cfg.Metrics.Namespace)
	v.SetDefault("metrics.poll_interval", cfg.Metrics.PollInterval)
	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("state.path", cfg.State.Path)

	if path == "" {
		path = os.Getenv("MOCHI_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(homeDir(), ".config", "mochi"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the client cannot run with and fills empty
// optional fields.
func (c *Config) Validate() error {
	c.Bridge.Backend = strings.ToLower(strings.TrimSpace(c.Bridge.Backend))
	if c.Bridge.Backend != "" && c.Bridge.Backend != "auto" {
		if _, err := core.ParseCapability(c.Bridge.Backend); err != nil {
			return fmt.Errorf("invalid bridge.backend: %w", err)
		}
	}
	if c.Bridge.MaxPending <= 0 {
		return fmt.Errorf("invalid bridge.max_pending: %d", c.Bridge.MaxPending)
	}
	if c.Bridge.History < 0 {
		return fmt.Errorf("invalid bridge.history: %d", c.Bridge.History)
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("invalid fetch.timeout: %v", c.Fetch.Timeout)
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("invalid fetch.max_retries: %d", c.Fetch.MaxRetries)
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid fetch.max_body_bytes: %d", c.Fetch.MaxBodyBytes)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Addr) == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	if c.Metrics.PollInterval <= 0 {
		c.Metrics.PollInterval = 5 * time.Second
	}

	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	switch c.UI.Theme {
	case "dark", "light":
	case "":
		c.UI.Theme = "dark"
	default:
		return fmt.Errorf("invalid ui.theme: %q", c.UI.Theme)
	}
	return nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func dataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "mochi")
}
