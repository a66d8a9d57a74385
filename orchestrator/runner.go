package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"
)

// maxCaptureBytes bounds how much of each output stream is kept per command.
const maxCaptureBytes = 64 * 1024

// RunResult is what a Runner observed from a process that started.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner launches one external process and waits for it.
//
// A non-nil error means the process could not be started (missing
// executable, permission denied, cancelled context); a process that ran and
// exited non-zero is reported through RunResult.ExitCode with a nil error.
type Runner interface {
	Run(ctx context.Context, program string, args []string) (RunResult, error)
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context, program string, args []string) (RunResult, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, program string, args []string) (RunResult, error) {
	return f(ctx, program, args)
}

// ExecRunner runs commands with os/exec, passing args directly to the
// process without a shell.
type ExecRunner struct{}

// Run starts program and waits for it to exit. The process is killed when
// ctx is done.
func (ExecRunner) Run(ctx context.Context, program string, args []string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, program, args...)

	var stdout, stderr tailBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return RunResult{}, err
	}
	err := cmd.Wait()

	result := RunResult{
		ExitCode: exitCodeFromError(err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil && result.ExitCode == -1 {
		// Killed by a signal (typically the context) or an I/O failure.
		if result.Stderr == "" {
			result.Stderr = err.Error()
		}
	}
	return result, nil
}

// exitCodeFromError extracts the exit code from a process error.
// Returns 0 for nil error, the exit code for ExitError, or -1 otherwise.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// tailBuffer is an io.Writer that keeps only the last maxCaptureBytes.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	t.buf.Write(p)
	if t.buf.Len() > maxCaptureBytes {
		tail := t.buf.Bytes()[t.buf.Len()-maxCaptureBytes:]
		kept := make([]byte, len(tail))
		copy(kept, tail)
		t.buf.Reset()
		t.buf.Write(kept)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
