package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://ssl.jobcan.jp", cfg.Portal.BaseURL)
	assert.Equal(t, "0930", cfg.Portal.ClockInTime)
	assert.Equal(t, "1830", cfg.Portal.ClockOutTime)
	assert.Equal(t, DriverPlaywright, cfg.Browser.Driver)
	assert.Equal(t, 300, cfg.Browser.WindowWidth)
	assert.Equal(t, time.Duration(0), cfg.Batch.StreamTimeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError string
	}{
		{
			name:        "relative base url",
			mutate:      func(c *Config) { c.Portal.BaseURL = "/employee" },
			expectError: "portal.base_url",
		},
		{
			name:        "bad clock-in time",
			mutate:      func(c *Config) { c.Portal.ClockInTime = "9:30" },
			expectError: "clock_in_time",
		},
		{
			name:        "bad clock-out time",
			mutate:      func(c *Config) { c.Portal.ClockOutTime = "2460" },
			expectError: "clock_out_time",
		},
		{
			name:        "unknown driver",
			mutate:      func(c *Config) { c.Browser.Driver = "selenium" },
			expectError: "invalid browser.driver",
		},
		{
			name:        "tiny window",
			mutate:      func(c *Config) { c.Browser.WindowWidth = 10 },
			expectError: "window_width",
		},
		{
			name:        "negative jitter",
			mutate:      func(c *Config) { c.Batch.MaxJitter = -time.Second },
			expectError: "max_jitter",
		},
		{
			name:        "negative stream timeout",
			mutate:      func(c *Config) { c.Batch.StreamTimeout = -1 },
			expectError: "stream_timeout",
		},
		{
			name:        "bad verbosity",
			mutate:      func(c *Config) { c.Logging.Verbosity = "loud" },
			expectError: "invalid logging verbosity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Portal, cfg.Portal)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
portal:
  clock_in_time: "1000"
browser:
  driver: chromedp
  headless: true
batch:
  base_delay: 500ms
  max_jitter: 1s
  stream_timeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "1000", cfg.Portal.ClockInTime)
	assert.Equal(t, "1830", cfg.Portal.ClockOutTime)
	assert.Equal(t, DriverChromedp, cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 500*time.Millisecond, cfg.Batch.BaseDelay)
	assert.Equal(t, time.Second, cfg.Batch.MaxJitter)
	assert.Equal(t, 45*time.Second, cfg.Batch.StreamTimeout)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("portal:\n  colour: red\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvDriver, "CHROMEDP")
	t.Setenv(EnvHeadless, "true")
	t.Setenv(EnvListen, "127.0.0.1:9999")
	t.Setenv(EnvProfileDir, "/tmp/punch-profile")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverChromedp, cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Listen)
	assert.Equal(t, "/tmp/punch-profile", cfg.Browser.ProfileDir)
}

func TestLoad_InvalidHeadlessEnv(t *testing.T) {
	t.Setenv(EnvHeadless, "sometimes")

	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvHeadless)
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Portal.ClockOutTime = "1900"
	cfg.Batch.MaxJitter = 4 * time.Second
	require.NoError(t, Save(path, cfg))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1900", loaded.Portal.ClockOutTime)
	assert.Equal(t, 4*time.Second, loaded.Batch.MaxJitter)
}
