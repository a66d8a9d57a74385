package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createTempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cut.otio")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return path
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Input = createTempFile(t)
	cfg.Output = t.TempDir()
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Bmx != "bmxtranswrap" {
		t.Errorf("Expected bmx 'bmxtranswrap', got %s", cfg.Bmx)
	}
	if cfg.WrapType != "op1a" {
		t.Errorf("Expected wrap type 'op1a', got %s", cfg.WrapType)
	}
	if cfg.FFprobe != "ffprobe" {
		t.Errorf("Expected ffprobe 'ffprobe', got %s", cfg.FFprobe)
	}
	if cfg.Handle != 0 {
		t.Errorf("Expected handle 0, got %d", cfg.Handle)
	}
	if cfg.Workers != 0 {
		t.Errorf("Expected workers 0 (unbounded), got %d", cfg.Workers)
	}
	if cfg.EDLRate != 25 {
		t.Errorf("Expected EDL rate 25, got %v", cfg.EDLRate)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Expected no timeout, got %v", cfg.TimeoutDuration())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Expected info/text logging, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.DryRun {
		t.Error("Expected dry run to be false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(cfg *Config)
		expectError bool
		errorText   string
	}{
		{
			name:        "valid config",
			modify:      func(cfg *Config) {},
			expectError: false,
		},
		{
			name:        "missing input",
			modify:      func(cfg *Config) { cfg.Input = "" },
			expectError: true,
			errorText:   "input timeline is required",
		},
		{
			name:        "input does not exist",
			modify:      func(cfg *Config) { cfg.Input = "/nonexistent/cut.otio" },
			expectError: true,
			errorText:   "input timeline does not exist",
		},
		{
			name:        "missing output",
			modify:      func(cfg *Config) { cfg.Output = "" },
			expectError: true,
			errorText:   "output directory is required",
		},
		{
			name:        "output is a file",
			modify:      func(cfg *Config) { cfg.Output = cfg.Input },
			expectError: true,
			errorText:   "output is not a directory",
		},
		{
			name:        "output created later",
			modify:      func(cfg *Config) { cfg.Output = filepath.Join(cfg.Output, "new", "dir") },
			expectError: false,
		},
		{
			name:        "missing source folder falls back to clip names",
			modify:      func(cfg *Config) { cfg.Source = "/nonexistent/media" },
			expectError: false,
		},
		{
			name:        "source is a file",
			modify:      func(cfg *Config) { cfg.Source = cfg.Input },
			expectError: true,
			errorText:   "source is not a directory",
		},
		{
			name:        "negative handle",
			modify:      func(cfg *Config) { cfg.Handle = -1 },
			expectError: true,
			errorText:   "handle cannot be negative",
		},
		{
			name:        "negative workers",
			modify:      func(cfg *Config) { cfg.Workers = -2 },
			expectError: true,
			errorText:   "workers cannot be negative",
		},
		{
			name:        "negative timeout",
			modify:      func(cfg *Config) { cfg.Timeout = Duration(-time.Second) },
			expectError: true,
			errorText:   "timeout cannot be negative",
		},
		{
			name:        "zero edl rate",
			modify:      func(cfg *Config) { cfg.EDLRate = 0 },
			expectError: true,
			errorText:   "edl rate must be positive",
		},
		{
			name:        "empty bmx",
			modify:      func(cfg *Config) { cfg.Bmx = "" },
			expectError: true,
			errorText:   "bmx executable is required",
		},
		{
			name:        "invalid log level",
			modify:      func(cfg *Config) { cfg.Logging.Level = "loud" },
			expectError: true,
			errorText:   "invalid level 'loud'",
		},
		{
			name:        "invalid log format",
			modify:      func(cfg *Config) { cfg.Logging.Format = "xml" },
			expectError: true,
			errorText:   "invalid format 'xml'",
		},
		{
			name:        "invalid module level",
			modify:      func(cfg *Config) { cfg.Logging.Modules = map[string]string{"orchestrator": "chatty"} },
			expectError: true,
			errorText:   "for module orchestrator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error containing '%s', got nil", tt.errorText)
				} else if !strings.Contains(err.Error(), tt.errorText) {
					t.Errorf("Expected error containing '%s', got: %v", tt.errorText, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Handle = -1
	cfg.Workers = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"input timeline is required", "output directory is required", "handle cannot be negative", "workers cannot be negative"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got: %v", want, err)
		}
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input     string
		expected  time.Duration
		expectErr bool
	}{
		{"90s", 90 * time.Second, false},
		{"1h30m", 90 * time.Minute, false},
		{"", 0, false},
		{"0", 0, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.expectErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if time.Duration(d) != tt.expected {
				t.Errorf("UnmarshalText(%q) = %v; want %v", tt.input, time.Duration(d), tt.expected)
			}
		})
	}
}

func TestTimelineOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EDLRate = 24
	if got := cfg.TimelineOptions().EDLRate; got != 24 {
		t.Errorf("TimelineOptions().EDLRate = %v; want 24", got)
	}
}
