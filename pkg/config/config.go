package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Config represents the complete punch configuration.
type Config struct {
	// Portal addressing and punch times
	Portal PortalConfig `yaml:"portal" json:"portal"`

	// Controlled browser settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Batch pacing and stream waits
	Batch BatchConfig `yaml:"batch" json:"batch"`

	// Bridge server for companion surfaces
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Artifacts configuration for headless runs
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`
}

// PortalConfig describes the attendance portal.
type PortalConfig struct {
	BaseURL      string `yaml:"base_url" json:"base_url"`
	LoginURL     string `yaml:"login_url" json:"login_url"`
	ClockInTime  string `yaml:"clock_in_time" json:"clock_in_time"`   // HHMM
	ClockOutTime string `yaml:"clock_out_time" json:"clock_out_time"` // HHMM
}

// DriverName selects the browser driver backing the controlled window.
type DriverName string

const (
	// DriverPlaywright drives Chromium through playwright-go
	DriverPlaywright DriverName = "playwright"
	// DriverChromedp drives Chrome through chromedp
	DriverChromedp DriverName = "chromedp"
)

// BrowserConfig defines how the controlled window is created.
type BrowserConfig struct {
	Driver       DriverName `yaml:"driver" json:"driver"`
	Headless     bool       `yaml:"headless" json:"headless"`
	ProfileDir   string     `yaml:"profile_dir" json:"profile_dir"`
	WindowWidth  int        `yaml:"window_width" json:"window_width"`
	WindowHeight int        `yaml:"window_height" json:"window_height"`
	ExecPath     string     `yaml:"exec_path" json:"exec_path"`
	// Install downloads the playwright browsers on first use
	Install bool `yaml:"install" json:"install"`
}

// BatchConfig paces batch runs.
type BatchConfig struct {
	BaseDelay time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxJitter time.Duration `yaml:"max_jitter" json:"max_jitter"`
	// StreamTimeout bounds every stream wait; zero waits until the session ends.
	StreamTimeout time.Duration `yaml:"stream_timeout" json:"stream_timeout"`
}

// ServerConfig configures the bridge server.
type ServerConfig struct {
	Listen         string   `yaml:"listen" json:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// ArtifactConfig defines where headless run summaries are written.
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

var hhmm = regexp.MustCompile(`^([01][0-9]|2[0-3])[0-5][0-9]$`)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:      "https://ssl.jobcan.jp",
			LoginURL:     "https://id.jobcan.jp/users/sign_in",
			ClockInTime:  "0930",
			ClockOutTime: "1830",
		},
		Browser: BrowserConfig{
			Driver:       DriverPlaywright,
			Headless:     false,
			ProfileDir:   filepath.Join(HomeDir(), "profile"),
			WindowWidth:  300,
			WindowHeight: 300,
			Install:      true,
		},
		Batch: BatchConfig{
			BaseDelay: 3 * time.Second,
			MaxJitter: 2 * time.Second,
		},
		Server: ServerConfig{
			Listen:         "127.0.0.1:8787",
			AllowedOrigins: []string{"ssl.jobcan.jp", "localhost:*", "127.0.0.1:*"},
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
		Artifacts: ArtifactConfig{
			Enabled:   true,
			OutputDir: filepath.Join(HomeDir(), "artifacts"),
		},
	}
}

// HomeDir returns the punch state directory (~/.punch).
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".punch"
	}
	return filepath.Join(home, ".punch")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.Portal.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("portal.base_url must be an absolute URL, got %q", c.Portal.BaseURL)
	}

	if !hhmm.MatchString(c.Portal.ClockInTime) {
		return fmt.Errorf("portal.clock_in_time must be HHMM, got %q", c.Portal.ClockInTime)
	}
	if !hhmm.MatchString(c.Portal.ClockOutTime) {
		return fmt.Errorf("portal.clock_out_time must be HHMM, got %q", c.Portal.ClockOutTime)
	}

	if c.Browser.Driver != DriverPlaywright && c.Browser.Driver != DriverChromedp {
		return fmt.Errorf("invalid browser.driver: %s (must be 'playwright' or 'chromedp')", c.Browser.Driver)
	}
	if c.Browser.ProfileDir == "" {
		return fmt.Errorf("browser.profile_dir is required")
	}
	if c.Browser.WindowWidth < 100 || c.Browser.WindowWidth > 5000 {
		return fmt.Errorf("browser.window_width must be between 100 and 5000 pixels")
	}
	if c.Browser.WindowHeight < 100 || c.Browser.WindowHeight > 5000 {
		return fmt.Errorf("browser.window_height must be between 100 and 5000 pixels")
	}

	if c.Batch.BaseDelay < 0 {
		return fmt.Errorf("batch.base_delay cannot be negative")
	}
	if c.Batch.MaxJitter < 0 {
		return fmt.Errorf("batch.max_jitter cannot be negative")
	}
	if c.Batch.StreamTimeout < 0 {
		return fmt.Errorf("batch.stream_timeout cannot be negative")
	}

	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}
