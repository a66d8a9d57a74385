package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("consolidate", pflag.ContinueOnError)
	BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) failed: %v", args, err)
	}
	return fs
}

func TestMergeFlags_OnlyChangedOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Handle = 24
	cfg.Bmx = "/opt/bmx/bin/bmxtranswrap"

	fs := newFlagSet(t, "-i", "cut.otio", "--workers", "3")
	if err := cfg.MergeFlags(fs); err != nil {
		t.Fatalf("MergeFlags failed: %v", err)
	}

	if cfg.Input != "cut.otio" {
		t.Errorf("Input = %s; want cut.otio", cfg.Input)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d; want 3", cfg.Workers)
	}
	if cfg.Handle != 24 {
		t.Errorf("Unset --handle overrode file value: %d", cfg.Handle)
	}
	if cfg.Bmx != "/opt/bmx/bin/bmxtranswrap" {
		t.Errorf("Unset --bmx overrode file value: %s", cfg.Bmx)
	}
}

func TestMergeFlags_AllOptions(t *testing.T) {
	fs := newFlagSet(t,
		"--input", "cut.edl",
		"--output", "/restore",
		"--source", "/media",
		"--bmx", "bmx",
		"--wrap-type", "as02",
		"--ffprobe", "/usr/local/bin/ffprobe",
		"-H", "12",
		"--edl-rate", "24",
		"-w", "2",
		"--timeout", "30s",
		"--playlist", "cut.ffconcat",
		"--metrics-file", "consolidate.prom",
		"--history-db", "history.db",
		"--dry-run",
		"--log-level", "debug",
		"--log-format", "json",
		"--log-journal",
	)

	cfg := DefaultConfig()
	if err := cfg.MergeFlags(fs); err != nil {
		t.Fatalf("MergeFlags failed: %v", err)
	}

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Input", cfg.Input, "cut.edl"},
		{"Output", cfg.Output, "/restore"},
		{"Source", cfg.Source, "/media"},
		{"Bmx", cfg.Bmx, "bmx"},
		{"WrapType", cfg.WrapType, "as02"},
		{"FFprobe", cfg.FFprobe, "/usr/local/bin/ffprobe"},
		{"Handle", cfg.Handle, 12},
		{"EDLRate", cfg.EDLRate, 24.0},
		{"Workers", cfg.Workers, 2},
		{"Timeout", cfg.TimeoutDuration(), 30 * time.Second},
		{"PlaylistFile", cfg.PlaylistFile, "cut.ffconcat"},
		{"MetricsFile", cfg.MetricsFile, "consolidate.prom"},
		{"HistoryDB", cfg.HistoryDB, "history.db"},
		{"DryRun", cfg.DryRun, true},
		{"Logging.Level", cfg.Logging.Level, "debug"},
		{"Logging.Format", cfg.Logging.Format, "json"},
		{"Logging.Journal", cfg.Logging.Journal, true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v; want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cut.otio")
	writeFile(t, input, "{}")

	configPath := filepath.Join(dir, "consolidate.yaml")
	writeFile(t, configPath, "input: "+input+"\noutput: "+dir+"\nhandle: 24\nworkers: 8\n")

	fs := newFlagSet(t, "--config", configPath, "--workers", "2")
	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Handle != 24 {
		t.Errorf("Handle = %d; want 24 from file", cfg.Handle)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d; want 2 from flag", cfg.Workers)
	}
	if cfg.WrapType != "op1a" {
		t.Errorf("WrapType = %s; want default op1a", cfg.WrapType)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	fs := newFlagSet(t, "--handle=-3")
	_, err := Load(fs)
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(err.Error(), "handle cannot be negative") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoad_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	writeFile(t, path, "handle: [\n")

	fs := newFlagSet(t, "--config", path)
	_, err := Load(fs)
	if err == nil || !strings.Contains(err.Error(), "failed to load config file") {
		t.Errorf("Expected config file error, got %v", err)
	}
}

func TestPrintConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input = "cut.otio"
	cfg.Handle = 24
	cfg.Timeout = Duration(2 * time.Minute)

	var buf bytes.Buffer
	cfg.PrintConfig(&buf)
	out := buf.String()

	for _, want := range []string{"cut.otio", "24 frames", "unbounded", "2m0s", "bmxtranswrap (-t op1a)"} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintConfig output missing %q:\n%s", want, out)
		}
	}
}
