// Package pipeline runs one consolidation from timeline file to restored
// media: read the timeline, merge clip references per source, convert the
// merged ranges to padded frame ranges and rewrap every source with
// bmxtranswrap.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"consolidate/command"
	"consolidate/command/bmx"
	"consolidate/config"
	"consolidate/ffprobe"
	"consolidate/handle"
	"consolidate/history"
	"consolidate/internal/timeutil"
	"consolidate/logging"
	"consolidate/metrics"
	"consolidate/models"
	"consolidate/orchestrator"
	"consolidate/playlist"
	"consolidate/registry"
	"consolidate/resolver"
	"consolidate/timeline"
)

// Exit statuses besides orchestrator.ExitSuccess and orchestrator.ExitFailure.
const (
	ExitError       = 1   // configuration or timeline error, nothing executed
	ExitInterrupted = 130 // SIGINT or SIGTERM
)

// ErrOutputCollision is returned when two sources would be restored to the
// same output file.
var ErrOutputCollision = errors.New("output path collision")

// Deps are the collaborators of Run. Zero values select the production
// implementation derived from the config.
type Deps struct {
	// Runner launches commands. Nil uses orchestrator.ExecRunner.
	Runner orchestrator.Runner

	// Lookup reads source frame rates. Nil probes with cfg.FFprobe.
	Lookup handle.FrameRateLookup

	// Stdout receives the command lines of a dry run. Nil is os.Stdout.
	Stdout io.Writer

	// Progress is called after each command finishes.
	Progress orchestrator.ProgressCallback

	// Metrics collects run metrics. Nil creates a private set when
	// cfg.MetricsFile is set.
	Metrics *metrics.Metrics

	// History records the run. Nil opens cfg.HistoryDB when it is set.
	History *history.Store
}

// Result describes a finished run.
type Result struct {
	RunID string

	// Clips are every video clip reference in timeline order, before
	// merging; they make up the playlist.
	Clips []models.CutClip

	// Sources are the merged entries in first-reference order.
	Sources []*models.CutClip

	Commands []command.Command
	Report   *orchestrator.Report

	ExitStatus int
}

// Run executes one consolidation and returns its result.
//
// The result is never nil. An error means the run could not complete: the
// timeline could not be read, the output directory could not be created,
// two sources collide, or ctx was cancelled. Command failures and
// unreadable frame rates are not errors; they are in Result.Report and make
// ExitStatus non-zero. A history database that cannot be opened is logged
// and the run continues unrecorded.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	logger := logging.GetLogger("pipeline")
	deps = withDefaults(cfg, deps)

	if deps.History == nil && cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB, logging.GetLogger("history"))
		if err != nil {
			logger.Warn("Run history unavailable, continuing without it", "path", cfg.HistoryDB, "error", err)
		} else {
			defer store.Close()
			deps.History = store
		}
	}

	res := &Result{Report: &orchestrator.Report{}}
	rec := newRecorder(ctx, cfg, deps, logger)
	res.RunID = rec.runID

	err := run(ctx, cfg, deps, logger, res)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		res.ExitStatus = ExitInterrupted
	default:
		res.ExitStatus = ExitError
	}
	rec.finish(res, err != nil && ctx.Err() != nil)
	return res, err
}

func run(ctx context.Context, cfg *config.Config, deps Deps, logger *slog.Logger, res *Result) error {
	tl, err := timeline.ReadFile(cfg.Input, cfg.TimelineOptions())
	if err != nil {
		return fmt.Errorf("timeline error: %w", err)
	}
	logger.Info("Timeline loaded", "name", tl.Name, "path", cfg.Input, "tracks", len(tl.Tracks))

	if cfg.Source != "" {
		if _, err := os.Stat(cfg.Source); err != nil {
			logger.Warn("Source folder not found, clip names are used as paths", "source", cfg.Source, "error", err)
		}
	}

	clips, reg := Consolidate(tl, cfg.Source, logger)
	res.Clips = clips
	res.Sources = reg.Entries()
	logger.Info("Clips consolidated", "clips", len(clips), "references", reg.Inserts(), "sources", reg.Len())

	content := playlist.FFConcat(clips)
	logger.Info("Playlist", "content", content)
	if cfg.PlaylistFile != "" {
		if err := playlist.WriteFile(cfg.PlaylistFile, clips); err != nil {
			logger.Warn("Failed to write playlist", "path", cfg.PlaylistFile, "error", err)
		} else {
			logger.Info("Playlist written", "path", cfg.PlaylistFile)
		}
	}

	failures := handle.Apply(ctx, res.Sources, cfg.Handle, deps.Lookup)
	if err := ctx.Err(); err != nil {
		return err
	}
	res.Report.ConversionFailures = failures
	for _, f := range failures {
		logger.Error("Frame rate lookup failed", "source", f.SourcePath, "error", f.Err)
	}

	cmds, err := BuildCommands(res.Sources, cfg)
	if err != nil {
		return err
	}
	res.Commands = cmds

	if cfg.DryRun {
		for _, cmd := range cmds {
			line, err := cmd.DryRun()
			if err != nil {
				return fmt.Errorf("failed to render command for %s: %w", cmd.GetInputPath(), err)
			}
			fmt.Fprintln(deps.Stdout, line)
		}
		res.ExitStatus = res.Report.ExitStatus()
		logger.Info("Dry run finished", "commands", len(cmds), "conversion_failures", len(failures))
		return nil
	}

	if len(cmds) > 0 {
		if err := os.MkdirAll(cfg.Output, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	executor := orchestrator.NewExecutor(deps.Runner, cfg.Workers).
		SetTimeout(cfg.TimeoutDuration()).
		SetProgressCallback(deps.Progress)
	report := executor.ExecuteAll(ctx, cmds)
	report.ConversionFailures = failures
	res.Report = report

	if err := ctx.Err(); err != nil {
		return err
	}

	for _, o := range report.Failed() {
		logger.Error("Command failed",
			"index", o.Index,
			"command", o.Command,
			"exit_code", o.ExitCode,
			"timed_out", o.TimedOut,
			"stderr", strings.TrimSpace(o.Stderr))
	}

	stats := report.GetStats()
	logger.Info("Consolidation finished",
		"commands", stats["total"],
		"succeeded", stats["succeeded"],
		"failed", stats["failed"],
		"timed_out", stats["timed_out"],
		"conversion_failures", stats["conversion_failures"])

	res.ExitStatus = report.ExitStatus()
	return nil
}

// Consolidate resolves every video clip of tl against sourceFolder and
// merges the references per source.
//
// The returned clips keep every reference in timeline order. Clips without
// a source range, or whose range cannot be registered, are logged and
// skipped.
func Consolidate(tl *timeline.Timeline, sourceFolder string, logger *slog.Logger) ([]models.CutClip, *registry.ClipRegistry) {
	reg := registry.New()
	var clips []models.CutClip

	for _, item := range tl.VideoClips() {
		if item.SourceRange == nil {
			logger.Warn("Clip has no source range, skipping", "clip", item.Name)
			continue
		}

		path, found := resolver.Resolve(sourceFolder, item.Name)
		if !found {
			logger.Debug("No media file found, using clip name as path", "clip", item.Name, "source", sourceFolder)
		}

		r := item.SourceRange.Seconds()
		if err := reg.InsertOrMerge(path, r); err != nil {
			logger.Warn("Skipping clip", "clip", item.Name, "error", err)
			continue
		}
		entry, _ := reg.Get(path)
		logger.Debug("Clip registered", "clip", item.Name, "path", path,
			"in", timeutil.FormatSeconds(r.Start), "out", timeutil.FormatSeconds(r.End()),
			"merged", entry.Range.String())
		clips = append(clips, models.CutClip{SourcePath: path, Range: r})
	}

	return clips, reg
}

// BuildCommands returns one bmxtranswrap command per converted source, in
// registry order. Sources without a frame range are skipped.
func BuildCommands(sources []*models.CutClip, cfg *config.Config) ([]command.Command, error) {
	logger := logging.GetLogger("pipeline")
	cmds := make([]command.Command, 0, len(sources))
	outputs := make(map[string]string, len(sources))

	for _, clip := range sources {
		if !clip.Converted() {
			continue
		}

		builder := bmx.NewBuilder(clip, cfg.Output, cfg.Bmx)
		builder.SetWrapType(cfg.WrapType)

		out := builder.GetOutputPath()
		if prev, dup := outputs[out]; dup {
			return nil, fmt.Errorf("%w: %s and %s both restore to %s", ErrOutputCollision, prev, clip.SourcePath, out)
		}
		outputs[out] = clip.SourcePath

		logger.Debug("Command built", "source", clip.SourcePath, "output", out,
			"frames", clip.FrameRange.String(),
			"source_in", timeutil.FormatTimecode(clip.FrameRange.Start, clip.FrameRate, false))
		cmds = append(cmds, builder)
	}

	return cmds, nil
}

func withDefaults(cfg *config.Config, deps Deps) Deps {
	if deps.Runner == nil {
		deps.Runner = orchestrator.ExecRunner{}
	}
	if deps.Lookup == nil {
		deps.Lookup = ffprobe.NewProber(cfg.FFprobe)
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Metrics == nil && cfg.MetricsFile != "" {
		deps.Metrics = metrics.New()
	}
	return deps
}

// recorder feeds the optional metrics and history sinks. Sink failures are
// logged and never change the run's exit status.
type recorder struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	history *history.Store
	logger  *slog.Logger
	ctx     context.Context
	runID   string
}

func newRecorder(ctx context.Context, cfg *config.Config, deps Deps, logger *slog.Logger) *recorder {
	rec := &recorder{
		cfg:     cfg,
		metrics: deps.Metrics,
		history: deps.History,
		logger:  logger,
		ctx:     context.WithoutCancel(ctx),
	}
	if rec.history != nil {
		id, err := rec.history.StartRun(rec.ctx, history.Run{
			Timeline:  cfg.Input,
			OutputDir: cfg.Output,
			Handle:    cfg.Handle,
			DryRun:    cfg.DryRun,
		})
		if err != nil {
			logger.Warn("Failed to record run start", "error", err)
		} else {
			rec.runID = id
		}
	}
	return rec
}

func (r *recorder) finish(res *Result, interrupted bool) {
	clips, sources := len(res.Clips), len(res.Sources)

	if r.metrics != nil {
		r.metrics.AddClips(clips)
		r.metrics.AddSources(sources)
		r.metrics.AddConversionFailures(len(res.Report.ConversionFailures))
		for _, o := range res.Report.Outcomes {
			r.metrics.ObserveOutcome(o)
		}
		r.metrics.RecordExit(res.ExitStatus, time.Now())
		if r.cfg.MetricsFile != "" {
			if err := r.metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
				r.logger.Warn("Failed to write metrics", "error", err)
			}
		}
	}

	if r.history == nil || r.runID == "" {
		return
	}
	if err := r.history.RecordOutcomes(r.ctx, r.runID, res.Report.Outcomes); err != nil {
		r.logger.Warn("Failed to record outcomes", "run", r.runID, "error", err)
	}
	if err := r.history.RecordConversionFailures(r.ctx, r.runID, res.Report.ConversionFailures); err != nil {
		r.logger.Warn("Failed to record conversion failures", "run", r.runID, "error", err)
	}

	var err error
	if interrupted {
		err = r.history.InterruptRun(r.ctx, r.runID, res.ExitStatus, clips, sources)
	} else {
		err = r.history.FinishRun(r.ctx, r.runID, res.ExitStatus, clips, sources)
	}
	if err != nil {
		r.logger.Warn("Failed to record run end", "run", r.runID, "error", err)
	}
}
