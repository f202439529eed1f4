package headless

import (
	"fmt"
	"time"

	"github.com/entrhq/punch/pkg/attendance"
	"github.com/entrhq/punch/pkg/config"
)

// Config represents the configuration for a headless run
type Config struct {
	// Task description recorded in the summary
	Task string `yaml:"task" json:"task"`

	// Run mode: batch completes dates, clock-in/clock-out submit one punch
	Mode attendance.Mode `yaml:"-" json:"-"`

	// Dates processed by a batch run
	Dates []attendance.Day `yaml:"dates" json:"dates"`

	// Edit page links processed by a single-punch run
	Links []string `yaml:"links" json:"links"`

	// Timeout bounds the whole run; zero means no limit
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Individual format flags
	JSON     bool `yaml:"json" json:"json"`
	Markdown bool `yaml:"markdown" json:"markdown"`
	Metrics  bool `yaml:"metrics" json:"metrics"`
}

// Punch returns the punch a single-punch run submits.
func (c *Config) Punch() attendance.Punch {
	if c.Mode == attendance.ModeClockOut {
		return attendance.ClockOut
	}
	return attendance.ClockIn
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Mode {
	case attendance.ModeBatch:
		if len(c.Dates) == 0 {
			return fmt.Errorf("at least one date is required")
		}
		for i, d := range c.Dates {
			if !d.Valid() {
				return fmt.Errorf("invalid date at position %d: %s", i, d)
			}
		}
	case attendance.ModeClockIn, attendance.ModeClockOut:
		if len(c.Links) == 0 {
			return fmt.Errorf("at least one edit page link is required")
		}
	default:
		return fmt.Errorf("invalid mode: %s", c.Mode)
	}

	if c.Task == "" {
		c.Task = defaultTask(c)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts.output_dir is required when artifacts are enabled")
	}

	// Set default verbosity if not specified
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

func defaultTask(c *Config) string {
	if c.Mode == attendance.ModeBatch {
		return fmt.Sprintf("complete %d dates", len(c.Dates))
	}
	return fmt.Sprintf("%s on %d dates", c.Mode, len(c.Links))
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Mode:    attendance.ModeBatch,
		Timeout: 30 * time.Minute,
		Artifacts: ArtifactConfig{
			Enabled:   true,
			OutputDir: config.DefaultConfig().Artifacts.OutputDir,
			JSON:      true,
			Markdown:  true,
			Metrics:   true,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// FromConfig returns DefaultConfig with the artifact and logging settings
// of the application configuration.
func FromConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	c.Artifacts.Enabled = cfg.Artifacts.Enabled
	c.Artifacts.OutputDir = cfg.Artifacts.OutputDir
	c.Logging.Verbosity = cfg.Logging.Verbosity
	return c
}
