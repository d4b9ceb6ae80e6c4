package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MOCHI_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Bridge.Backend)
	assert.Equal(t, 4, cfg.Bridge.Workers)
	assert.Equal(t, 64, cfg.Bridge.MaxPending)
	assert.Equal(t, 100, cfg.Bridge.History)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, int64(4<<20), cfg.Fetch.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "config.toml", `
[bridge]
backend = "cooperative"
workers = 2
max_pending = 8

[fetch]
timeout = "5s"
user_agent = "test-agent"
max_retries = 2

[log]
level = "debug"
outputs = ["stderr"]

[metrics]
enabled = true
addr = ":9999"

[ui]
theme = "Light"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cooperative", cfg.Bridge.Backend)
	assert.Equal(t, 2, cfg.Bridge.Workers)
	assert.Equal(t, 8, cfg.Bridge.MaxPending)
	assert.Equal(t, 100, cfg.Bridge.History, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "test-agent", cfg.Fetch.UserAgent)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Log.Outputs)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.toml", "[bridge]\nbackend = \"cooperative\"\n")
	t.Setenv("MOCHI_BRIDGE_BACKEND", "threaded")
	t.Setenv("MOCHI_FETCH_MAX_RETRIES", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "threaded", cfg.Bridge.Backend)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
}

func TestLoad_ConfigFromEnvPath(t *testing.T) {
	path := writeFile(t, "mochi.toml", "[ui]\ntheme = \"light\"\n")
	t.Setenv("MOCHI_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		require.Error(t, err)
	})

	t.Run("malformed toml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.toml", "[bridge\nbackend ="))
		require.Error(t, err)
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := Load(writeFile(t, "c.toml", "[bridge]\nbackend = \"quantum\"\n"))
		require.ErrorContains(t, err, "bridge.backend")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero max pending", func(c *Config) { c.Bridge.MaxPending = 0 }, "bridge.max_pending"},
		{"negative history", func(c *Config) { c.Bridge.History = -1 }, "bridge.history"},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "fetch.timeout"},
		{"negative retries", func(c *Config) { c.Fetch.MaxRetries = -1 }, "fetch.max_retries"},
		{"zero body limit", func(c *Config) { c.Fetch.MaxBodyBytes = 0 }, "fetch.max_body_bytes"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = " " }, "metrics.addr"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"native alias", func(c *Config) { c.Bridge.Backend = "native" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_FillsOptionalFields(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = ""
	cfg.Log.Outputs = nil
	cfg.UI.Theme = ""
	cfg.Metrics.PollInterval = 0

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, []string{"stderr"}, cfg.Log.Outputs)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, 5*time.Second, cfg.Metrics.PollInterval)
}
