package config

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
)

// Flag names shared by BindFlags and MergeFlags.
const (
	FlagConfig       = "config"
	FlagInput        = "input"
	FlagOutput       = "output"
	FlagSource       = "source"
	FlagBmx          = "bmx"
	FlagHandle       = "handle"
	FlagWrapType     = "wrap-type"
	FlagFFprobe      = "ffprobe"
	FlagWorkers      = "workers"
	FlagTimeout      = "timeout"
	FlagPlaylist     = "playlist"
	FlagDryRun       = "dry-run"
	FlagMetricsFile  = "metrics-file"
	FlagHistoryDB    = "history-db"
	FlagEDLRate      = "edl-rate"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
	FlagLogJournal   = "log-journal"
	FlagPrintConfig  = "print-config"
	FlagShowProgress = "progress"
)

// BindFlags registers every option on fs. Defaults shown in help come from
// DefaultConfig; only flags the user actually sets override file values.
func BindFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	fs.String(FlagConfig, "", "Path to config file (default: search ./consolidate.yaml, ~/.consolidate/config.yaml, /etc/consolidate/config.yaml)")

	fs.StringP(FlagInput, "i", d.Input, "Timeline file: .otio, .json or .edl (required)")
	fs.StringP(FlagOutput, "o", d.Output, "Directory for restored media (required)")
	fs.StringP(FlagSource, "s", d.Source, "Folder searched for <clip>.mxf / <clip>.mp4")

	fs.StringP(FlagBmx, "b", d.Bmx, "bmxtranswrap executable")
	fs.String(FlagWrapType, d.WrapType, "Output wrapper type passed to bmxtranswrap -t")
	fs.String(FlagFFprobe, d.FFprobe, "ffprobe executable")

	fs.IntP(FlagHandle, "H", d.Handle, "Handle frames added before and after every clip")
	fs.Float64(FlagEDLRate, d.EDLRate, "Frame rate used to read EDL timecodes")

	fs.IntP(FlagWorkers, "w", d.Workers, "Maximum concurrent bmxtranswrap processes (0 = unbounded)")
	fs.Duration(FlagTimeout, d.TimeoutDuration(), "Per-command timeout, e.g. 10m (0 = none)")

	fs.String(FlagPlaylist, d.PlaylistFile, "Write an ffconcat playlist of the timeline clips to this file")
	fs.String(FlagMetricsFile, d.MetricsFile, "Write Prometheus textfile metrics to this file")
	fs.String(FlagHistoryDB, d.HistoryDB, "Record runs in this SQLite database")

	fs.Bool(FlagDryRun, d.DryRun, "Print commands without running them")
	fs.Bool(FlagPrintConfig, false, "Print the effective configuration and exit")
	fs.Bool(FlagShowProgress, true, "Show a progress bar when stderr is a terminal")

	fs.String(FlagLogLevel, d.Logging.Level, "Log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.Logging.Format, "Log format: text, json")
	fs.Bool(FlagLogJournal, d.Logging.Journal, "Also log to the systemd journal when available")
}

// MergeFlags overrides config values with the flags set on fs.
func (c *Config) MergeFlags(fs *pflag.FlagSet) error {
	var firstErr error
	fs.Visit(func(f *pflag.Flag) {
		if firstErr != nil {
			return
		}
		if err := c.applyFlag(fs, f.Name); err != nil {
			firstErr = fmt.Errorf("flag --%s: %w", f.Name, err)
		}
	})
	return firstErr
}

func (c *Config) applyFlag(fs *pflag.FlagSet, name string) error {
	var err error
	switch name {
	case FlagInput:
		c.Input, err = fs.GetString(name)
	case FlagOutput:
		c.Output, err = fs.GetString(name)
	case FlagSource:
		c.Source, err = fs.GetString(name)
	case FlagBmx:
		c.Bmx, err = fs.GetString(name)
	case FlagWrapType:
		c.WrapType, err = fs.GetString(name)
	case FlagFFprobe:
		c.FFprobe, err = fs.GetString(name)
	case FlagHandle:
		c.Handle, err = fs.GetInt(name)
	case FlagEDLRate:
		c.EDLRate, err = fs.GetFloat64(name)
	case FlagWorkers:
		c.Workers, err = fs.GetInt(name)
	case FlagTimeout:
		var timeout time.Duration
		timeout, err = fs.GetDuration(name)
		c.Timeout = Duration(timeout)
	case FlagPlaylist:
		c.PlaylistFile, err = fs.GetString(name)
	case FlagMetricsFile:
		c.MetricsFile, err = fs.GetString(name)
	case FlagHistoryDB:
		c.HistoryDB, err = fs.GetString(name)
	case FlagDryRun:
		c.DryRun, err = fs.GetBool(name)
	case FlagLogLevel:
		c.Logging.Level, err = fs.GetString(name)
	case FlagLogFormat:
		c.Logging.Format, err = fs.GetString(name)
	case FlagLogJournal:
		c.Logging.Journal, err = fs.GetBool(name)
	}
	return err
}

// Load builds the effective configuration: defaults, then the config file
// named by --config (or found by FindConfigFile), then the flags set on fs.
// The result is validated.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	configPath, _ := fs.GetString(FlagConfig)
	if configPath == "" {
		configPath = FindConfigFile()
	}

	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg = fileCfg
	}

	if err := cfg.MergeFlags(fs); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PrintConfig writes the effective configuration.
func (c *Config) PrintConfig(w io.Writer) {
	fmt.Fprintln(w, "Effective configuration:")
	fmt.Fprintf(w, "  Input:          %s\n", c.Input)
	fmt.Fprintf(w, "  Output:         %s\n", c.Output)
	fmt.Fprintf(w, "  Source:         %s\n", c.Source)
	fmt.Fprintf(w, "  bmxtranswrap:   %s (-t %s)\n", c.Bmx, c.WrapType)
	fmt.Fprintf(w, "  ffprobe:        %s\n", c.FFprobe)
	fmt.Fprintf(w, "  Handle:         %d frames\n", c.Handle)
	fmt.Fprintf(w, "  EDL rate:       %g fps\n", c.EDLRate)
	if c.Workers == 0 {
		fmt.Fprintln(w, "  Workers:        unbounded")
	} else {
		fmt.Fprintf(w, "  Workers:        %d\n", c.Workers)
	}
	if c.Timeout == 0 {
		fmt.Fprintln(w, "  Timeout:        none")
	} else {
		fmt.Fprintf(w, "  Timeout:        %s\n", c.TimeoutDuration())
	}
	if c.PlaylistFile != "" {
		fmt.Fprintf(w, "  Playlist:       %s\n", c.PlaylistFile)
	}
	if c.MetricsFile != "" {
		fmt.Fprintf(w, "  Metrics file:   %s\n", c.MetricsFile)
	}
	if c.HistoryDB != "" {
		fmt.Fprintf(w, "  History DB:     %s\n", c.HistoryDB)
	}
	fmt.Fprintf(w, "  Dry run:        %v\n", c.DryRun)
	fmt.Fprintf(w, "  Log level:      %s (%s)\n", c.Logging.Level, c.Logging.Format)
}
