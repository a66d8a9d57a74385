// Package orchestrator runs built commands concurrently and aggregates
// their outcomes into a single report.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"consolidate/command"
	"consolidate/logging"
	"consolidate/models"
)

// ProgressCallback is called on the collecting goroutine after each command
// finishes.
type ProgressCallback func(completed, total int, outcome *models.CommandOutcome)

// Executor runs commands in parallel with an optional cap on concurrency
// and an optional per-command timeout.
//
// Execution is fail-open: a failing command never stops its siblings.
// Only the caller's context can cut a run short, in which case commands
// not yet started fail to launch and running ones are killed.
type Executor struct {
	runner     Runner
	workers    int
	timeout    time.Duration
	onProgress ProgressCallback
	logger     *slog.Logger
}

// NewExecutor creates an Executor. workers <= 0 runs every command at once.
// A nil runner uses ExecRunner.
func NewExecutor(runner Runner, workers int) *Executor {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Executor{
		runner:  runner,
		workers: workers,
		logger:  logging.GetLogger("orchestrator"),
	}
}

// SetTimeout sets the per-command timeout. Zero disables it.
func (e *Executor) SetTimeout(timeout time.Duration) *Executor {
	e.timeout = timeout
	return e
}

// SetProgressCallback sets a callback for progress updates.
func (e *Executor) SetProgressCallback(callback ProgressCallback) *Executor {
	e.onProgress = callback
	return e
}

// ExecuteAll runs every command and returns once all of them have finished.
//
// Outcomes are indexed by position in cmds and sorted by that index in the
// returned report. When the executor is capped, higher priority commands
// are dispatched first; equal priorities keep their input order.
func (e *Executor) ExecuteAll(ctx context.Context, cmds []command.Command) *Report {
	total := len(cmds)
	report := &Report{Outcomes: make([]models.CommandOutcome, 0, total)}
	if total == 0 {
		return report
	}

	workers := e.workers
	if workers <= 0 || workers > total {
		workers = total
	}

	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cmds[order[a]].GetPriority() > cmds[order[b]].GetPriority()
	})

	jobs := make(chan int)
	results := make(chan models.CommandOutcome, total)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- e.executeOne(ctx, i, cmds[i])
			}
		}()
	}

	go func() {
		for _, i := range order {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	e.logger.Info("Executing commands", "count", total, "workers", workers, "timeout", e.timeout)

	completed := 0
	for outcome := range results {
		completed++
		report.Outcomes = append(report.Outcomes, outcome)
		if e.onProgress != nil {
			e.onProgress(completed, total, &report.Outcomes[len(report.Outcomes)-1])
		}
	}

	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].Index < report.Outcomes[j].Index
	})
	return report
}

// executeOne runs a single command and never panics on failure; every
// problem is folded into the returned outcome.
func (e *Executor) executeOne(ctx context.Context, index int, cmd command.Command) models.CommandOutcome {
	program := cmd.Program()
	args := cmd.BuildArgs()
	line := command.Format(program, args)

	runCtx := ctx
	cancel := func() {}
	if e.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	e.logger.Debug("Executing", "index", index, "command", line)

	start := time.Now()
	result, err := e.runner.Run(runCtx, program, args)
	elapsed := time.Since(start)

	var outcome models.CommandOutcome
	if err != nil {
		outcome = models.NewLaunchFailure(index, line, args, err)
	} else {
		outcome = models.NewCommandOutcome(index, line, args, result.ExitCode, result.Stdout, result.Stderr)
	}

	// A clean exit stands even when the deadline passed before this check.
	if !outcome.Succeeded && e.timeout > 0 && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		outcome.TimedOut = true
		outcome.Succeeded = false
		outcome.ExitCode = models.LaunchFailureExitCode
		msg := fmt.Sprintf("timed out after %s", e.timeout)
		if outcome.Stderr != "" {
			msg = outcome.Stderr + "\n" + msg
		}
		outcome.Stderr = msg
	}
	outcome.Duration = elapsed

	if outcome.Succeeded {
		e.logger.Debug("Command succeeded", "index", index, "duration", elapsed)
	} else {
		e.logger.Warn("Command failed", "index", index, "exit_code", outcome.ExitCode, "timed_out", outcome.TimedOut)
	}
	return outcome
}
