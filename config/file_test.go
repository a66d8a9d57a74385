package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestLoadConfigFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consolidate.yaml")
	writeFile(t, path, `
input: /edits/cut.otio
output: /restore
source: /media
handle: 24
workers: 4
timeout: 10m
edl_rate: 24
playlist_file: /restore/cut.ffconcat
logging:
  level: debug
  modules:
    orchestrator: warn
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.Input != "/edits/cut.otio" || cfg.Output != "/restore" || cfg.Source != "/media" {
		t.Errorf("Unexpected paths: %+v", cfg)
	}
	if cfg.Handle != 24 {
		t.Errorf("Handle = %d; want 24", cfg.Handle)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d; want 4", cfg.Workers)
	}
	if cfg.TimeoutDuration() != 10*time.Minute {
		t.Errorf("Timeout = %v; want 10m", cfg.TimeoutDuration())
	}
	if cfg.EDLRate != 24 {
		t.Errorf("EDLRate = %v; want 24", cfg.EDLRate)
	}
	if cfg.PlaylistFile != "/restore/cut.ffconcat" {
		t.Errorf("PlaylistFile = %s", cfg.PlaylistFile)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s; want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Modules["orchestrator"] != "warn" {
		t.Errorf("Module level = %s; want warn", cfg.Logging.Modules["orchestrator"])
	}

	// Keys absent from the file keep their defaults.
	if cfg.Bmx != "bmxtranswrap" || cfg.WrapType != "op1a" {
		t.Errorf("Defaults lost: bmx=%s wrap=%s", cfg.Bmx, cfg.WrapType)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %s; want text", cfg.Logging.Format)
	}
}

func TestLoadConfigFile_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consolidate.toml")
	writeFile(t, path, `
input = "/edits/cut.edl"
output = "/restore"
bmx = "/opt/bmx/bin/bmxtranswrap"
handle = 12
timeout = "90s"
edl_rate = 29.97
dry_run = true

[logging]
format = "json"
journal = true
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.Input != "/edits/cut.edl" {
		t.Errorf("Input = %s", cfg.Input)
	}
	if cfg.Bmx != "/opt/bmx/bin/bmxtranswrap" {
		t.Errorf("Bmx = %s", cfg.Bmx)
	}
	if cfg.Handle != 12 {
		t.Errorf("Handle = %d; want 12", cfg.Handle)
	}
	if cfg.TimeoutDuration() != 90*time.Second {
		t.Errorf("Timeout = %v; want 90s", cfg.TimeoutDuration())
	}
	if cfg.EDLRate != 29.97 {
		t.Errorf("EDLRate = %v; want 29.97", cfg.EDLRate)
	}
	if !cfg.DryRun {
		t.Error("Expected dry run from file")
	}
	if cfg.Logging.Format != "json" || !cfg.Logging.Journal {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %s; want default info", cfg.Logging.Level)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown YAML key", "bad.yaml", "input: a.otio\nchunk_duration: 5\n"},
		{"malformed YAML", "broken.yaml", "input: [unterminated\n"},
		{"unknown TOML key", "bad.toml", "mode = \"gpu-only\"\n"},
		{"bad duration", "timeout.yaml", "timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)
			if _, err := LoadConfigFile(path); err == nil {
				t.Error("Expected parse error, got nil")
			} else if !strings.Contains(err.Error(), "failed to parse config file") {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}

	if _, err := LoadConfigFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadConfigFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, path, "")

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("Empty file should load defaults, got: %v", err)
	}
	if cfg.Bmx != "bmxtranswrap" {
		t.Errorf("Bmx = %s; want default", cfg.Bmx)
	}
}

func TestFindConfigFile(t *testing.T) {
	work := t.TempDir()
	home := t.TempDir()
	t.Chdir(work)
	t.Setenv("HOME", home)

	if _, err := os.Stat("/etc/consolidate"); err == nil {
		t.Skip("/etc/consolidate exists on this machine")
	}

	if got := FindConfigFile(); got != "" {
		t.Errorf("FindConfigFile() = %s; want empty", got)
	}

	homeConfig := filepath.Join(home, ".consolidate", "config.yaml")
	writeFile(t, homeConfig, "handle: 1\n")
	if got := FindConfigFile(); got != homeConfig {
		t.Errorf("FindConfigFile() = %s; want %s", got, homeConfig)
	}

	writeFile(t, filepath.Join(work, "consolidate.toml"), "handle = 2\n")
	if got := FindConfigFile(); got != "./consolidate.toml" {
		t.Errorf("FindConfigFile() = %s; want ./consolidate.toml", got)
	}

	writeFile(t, filepath.Join(work, "consolidate.yaml"), "handle: 3\n")
	if got := FindConfigFile(); got != "./consolidate.yaml" {
		t.Errorf("FindConfigFile() = %s; want ./consolidate.yaml", got)
	}
}
