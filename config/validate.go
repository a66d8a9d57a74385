package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"consolidate/logging"
)

// Validate checks if the configuration is valid. Every problem is
// reported, not only the first.
func (c *Config) Validate() error {
	var errors []string

	// Required fields
	if c.Input == "" {
		errors = append(errors, "input timeline is required")
	} else if info, err := os.Stat(c.Input); err != nil {
		errors = append(errors, fmt.Sprintf("input timeline does not exist: %s", c.Input))
	} else if info.IsDir() {
		errors = append(errors, fmt.Sprintf("input timeline is a directory: %s", c.Input))
	}

	if c.Output == "" {
		errors = append(errors, "output directory is required")
	} else if info, err := os.Stat(c.Output); err == nil && !info.IsDir() {
		errors = append(errors, fmt.Sprintf("output is not a directory: %s", c.Output))
	}

	// A missing source folder is not an error: every clip name is then
	// used as its own path.
	if c.Source != "" {
		if info, err := os.Stat(c.Source); err == nil && !info.IsDir() {
			errors = append(errors, fmt.Sprintf("source is not a directory: %s", c.Source))
		}
	}

	if c.Bmx == "" {
		errors = append(errors, "bmx executable is required")
	}
	if c.FFprobe == "" {
		errors = append(errors, "ffprobe executable is required")
	}
	if c.WrapType == "" {
		errors = append(errors, "wrap type is required")
	}

	if c.Handle < 0 {
		errors = append(errors, "handle cannot be negative")
	}

	if c.EDLRate <= 0 || math.IsNaN(c.EDLRate) || math.IsInf(c.EDLRate, 0) {
		errors = append(errors, "edl rate must be positive")
	}

	// 0 is valid, means unbounded
	if c.Workers < 0 {
		errors = append(errors, "workers cannot be negative (use 0 for unbounded)")
	}

	if c.Timeout < 0 {
		errors = append(errors, "timeout cannot be negative (use 0 for none)")
	}

	if err := validateLogging(c.Logging); err != nil {
		errors = append(errors, fmt.Sprintf("logging config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateLogging(lc logging.Config) error {
	var errors []string

	if !logging.ValidLevel(lc.Level) {
		errors = append(errors, fmt.Sprintf("invalid level '%s'", lc.Level))
	}

	if !IsValidLogFormat(lc.Format) {
		errors = append(errors, fmt.Sprintf("invalid format '%s', must be one of: %s",
			lc.Format, strings.Join(LogFormatValues(), ", ")))
	}

	for module, level := range lc.Modules {
		if !logging.ValidLevel(level) {
			errors = append(errors, fmt.Sprintf("invalid level '%s' for module %s", level, module))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}
