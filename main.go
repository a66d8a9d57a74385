package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"consolidate/config"
	"consolidate/logging"
	"consolidate/pipeline"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	exitCode := pipeline.ExitError
	cmd := newRootCommand(&exitCode)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return pipeline.ExitError
	}
	return exitCode
}

func newRootCommand(exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Restore only the used parts of source media referenced by an edit",
		Long: `consolidate reads an edit timeline (OpenTimelineIO .otio/.json or CMX 3600 .edl),
merges every video clip reference per source file, pads the merged ranges
with handle frames and restores each source with bmxtranswrap.

Configuration files are searched in order:
  1. ./consolidate.yaml, ./consolidate.yml, ./consolidate.toml
  2. ~/.consolidate/config.yaml
  3. /etc/consolidate/config.yaml

Priority: CLI flags > Config file > Defaults`,
		Example: `  # Restore with 24 handle frames, media looked up in /media
  consolidate -i cut.otio -o /restore -s /media -H 24

  # Show the bmxtranswrap commands without running them
  consolidate -i cut.edl -o /restore --dry-run

  # Limit to 4 concurrent processes and write a playlist
  consolidate -i cut.otio -o /restore -w 4 --playlist cut.ffconcat`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*exitCode = run(cmd)
			return nil
		},
	}

	config.BindFlags(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command) int {
	flags := cmd.Flags()
	stderr := cmd.ErrOrStderr()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return pipeline.ExitError
	}

	if show, _ := flags.GetBool(config.FlagPrintConfig); show {
		cfg.PrintConfig(cmd.OutOrStdout())
		return 0
	}

	logging.Initialize(cfg.Logging)
	logger := logging.GetLogger("main")

	// Cancelling the context kills running bmxtranswrap processes.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := pipeline.Deps{Stdout: cmd.OutOrStdout()}
	showProgress, _ := flags.GetBool(config.FlagShowProgress)
	var bar *progress
	if showProgress && !cfg.DryRun && cfg.Logging.Format == "text" && isTerminal(stderr) {
		bar = newProgress(stderr)
		deps.Progress = bar.update
	}

	res, err := pipeline.Run(ctx, cfg, deps)
	bar.finish()

	switch {
	case err == nil:
		if res.RunID != "" {
			logger.Info("Run recorded", "run", res.RunID, "history", cfg.HistoryDB)
		}
		return res.ExitStatus
	case errors.Is(err, context.Canceled):
		logger.Warn("Interrupted, running commands were stopped")
		return pipeline.ExitInterrupted
	default:
		logger.Error("Consolidation failed", "error", err)
		return res.ExitStatus
	}
}
