package models

import (
	"fmt"
	"time"
)

// LaunchFailureExitCode is recorded when a command never produced an exit
// status: the executable was missing, not permitted, or killed by timeout.
const LaunchFailureExitCode = -1

// CommandOutcome represents the result of running one external command.
//
// An outcome is created exactly once per executed command and is not
// modified afterwards. Succeeded is always ExitCode == 0.
type CommandOutcome struct {
	Index     int           `json:"index"`
	Command   string        `json:"command"`
	Args      []string      `json:"args"`
	ExitCode  int           `json:"exit_code"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	Succeeded bool          `json:"succeeded"`
	TimedOut  bool          `json:"timed_out"`
	Duration  time.Duration `json:"duration"`
}

// NewCommandOutcome creates an outcome from a finished process.
//
// Example:
//
//	outcome := models.NewCommandOutcome(0, "bmxtranswrap -t op1a ...", args, 0, "", "")
//	fmt.Println(outcome.Succeeded) // true
func NewCommandOutcome(index int, command string, args []string, exitCode int, stdout, stderr string) CommandOutcome {
	return CommandOutcome{
		Index:     index,
		Command:   command,
		Args:      args,
		ExitCode:  exitCode,
		Stdout:    stdout,
		Stderr:    stderr,
		Succeeded: exitCode == 0,
	}
}

// NewLaunchFailure creates an outcome for a command that could not be
// started. The launch error text takes the place of stderr.
func NewLaunchFailure(index int, command string, args []string, err error) CommandOutcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return NewCommandOutcome(index, command, args, LaunchFailureExitCode, "", msg)
}

// Validate checks that Succeeded agrees with ExitCode.
func (o CommandOutcome) Validate() error {
	if o.Succeeded != (o.ExitCode == 0) {
		return fmt.Errorf("inconsistent outcome: exit code %d with succeeded=%v", o.ExitCode, o.Succeeded)
	}
	if o.TimedOut && o.Succeeded {
		return fmt.Errorf("inconsistent outcome: timed out but succeeded")
	}
	return nil
}
