// Package command provides the core Command interface shared by every
// external-tool builder, plus the quoting used to display commands.
//
// Builders only describe an invocation (program plus argument vector). They
// never run it; execution belongs to the orchestrator, which passes the
// argument vector straight to the process without a shell.
package command

import "al.essio.dev/pkg/shellescape"

// Priority levels for dispatch order when the executor is capped.
// Higher priority commands are started first.
const (
	PriorityLow    = 0
	PriorityNormal = 5
	PriorityHigh   = 10
)

// TaskType identifies what kind of work a command performs.
type TaskType string

const (
	TaskTypeRewrap TaskType = "rewrap" // Partial restore of a source file into a new container
)

// Command represents an external invocation that can be built or previewed.
//
// Example usage:
//
//	cmd := bmx.NewBuilder(clip, "/restore", "bmxtranswrap")
//	line, _ := cmd.DryRun() // bmxtranswrap -t op1a -o /restore/A.mxf --start 26 --dur 373 /media/A.mxf
//	args := cmd.BuildArgs()  // pass to exec.Command(cmd.Program(), args...)
type Command interface {
	// Program returns the executable to launch.
	Program() string

	// BuildArgs returns the argument vector, without the program name.
	BuildArgs() []string

	// DryRun returns the full command line with every token shell-quoted.
	// It fails when the command cannot be built.
	DryRun() (string, error)

	// GetPriority returns the dispatch priority.
	GetPriority() int

	// SetPriority sets the dispatch priority.
	// Returns the Command for method chaining.
	SetPriority(priority int) Command

	// GetTaskType returns the kind of work the command performs.
	GetTaskType() TaskType

	// GetInputPath returns the primary input file.
	GetInputPath() string

	// GetOutputPath returns the file the command writes.
	GetOutputPath() string
}

// Format renders program and args as one display line that a POSIX shell
// reads back as the same argument vector.
func Format(program string, args []string) string {
	return shellescape.QuoteCommand(append([]string{program}, args...))
}
