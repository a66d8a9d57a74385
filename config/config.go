// Package config loads consolidate's settings with the priority
// CLI flags > config file > defaults.
package config

import (
	"fmt"
	"time"

	"consolidate/command/bmx"
	"consolidate/ffprobe"
	"consolidate/logging"
	"consolidate/timeline"
)

// Config holds all consolidation options.
type Config struct {
	// Required fields
	Input  string `yaml:"input" toml:"input"`   // timeline file (.otio, .json, .edl)
	Output string `yaml:"output" toml:"output"` // directory receiving restored files

	// Source resolution
	Source string `yaml:"source" toml:"source"` // folder searched for clip media; empty = clip names are paths

	// External tools
	Bmx      string `yaml:"bmx" toml:"bmx"`             // bmxtranswrap executable
	WrapType string `yaml:"wrap_type" toml:"wrap_type"` // bmxtranswrap -t value
	FFprobe  string `yaml:"ffprobe" toml:"ffprobe"`     // ffprobe executable

	// Conversion settings
	Handle  int     `yaml:"handle" toml:"handle"`     // frames added on each side of a clip
	EDLRate float64 `yaml:"edl_rate" toml:"edl_rate"` // frame rate of EDL timecodes

	// Execution settings
	Workers int      `yaml:"workers" toml:"workers"` // 0 = one process per command
	Timeout Duration `yaml:"timeout" toml:"timeout"` // per command; 0 = none

	// Outputs besides the restored media
	PlaylistFile string `yaml:"playlist_file" toml:"playlist_file"`
	MetricsFile  string `yaml:"metrics_file" toml:"metrics_file"`
	HistoryDB    string `yaml:"history_db" toml:"history_db"`

	// Behavioral flags
	DryRun bool `yaml:"dry_run" toml:"dry_run"` // print commands without running them

	Logging logging.Config `yaml:"logging" toml:"logging"`
}

// Duration is a time.Duration written as a Go duration string ("90s",
// "5m") in config files.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats d as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Input:  "",
		Output: "",

		Bmx:      bmx.DefaultExecutable,
		WrapType: bmx.DefaultWrapType,
		FFprobe:  ffprobe.DefaultExecutable,

		Handle:  0,
		EDLRate: timeline.DefaultEDLRate,

		Workers: 0,
		Timeout: 0,

		DryRun: false,

		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// TimeoutDuration returns the per-command timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout)
}

// TimelineOptions returns the reader options derived from the config.
func (c *Config) TimelineOptions() timeline.Options {
	return timeline.Options{EDLRate: c.EDLRate}
}

// LogFormatValues returns valid logging.format values
func LogFormatValues() []string {
	return []string{"text", "json"}
}

// IsValidLogFormat checks if format is valid
func IsValidLogFormat(format string) bool {
	for _, valid := range LogFormatValues() {
		if format == valid {
			return true
		}
	}
	return false
}
