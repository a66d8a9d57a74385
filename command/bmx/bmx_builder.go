// Package bmx builds bmxtranswrap invocations that restore a frame range of a
// source file into a standalone file.
package bmx

import (
	"fmt"
	"path/filepath"
	"strconv"

	"consolidate/command"
	"consolidate/models"
)

// DefaultExecutable is the bmxtranswrap binary looked up on PATH.
const DefaultExecutable = "bmxtranswrap"

// DefaultWrapType is the output container written by bmxtranswrap.
const DefaultWrapType = "op1a"

// Builder implements RewrapCommand for a single consolidated clip.
type Builder struct {
	clip       *models.CutClip
	outputDir  string
	executable string
	wrapType   string
	priority   int
}

// NewBuilder creates a Builder writing into outputDir. An empty executable
// means DefaultExecutable.
//
// The clip must have been through the handle pass; BuildArgs uses its
// FrameRange.
func NewBuilder(clip *models.CutClip, outputDir, executable string) *Builder {
	if executable == "" {
		executable = DefaultExecutable
	}
	return &Builder{
		clip:       clip,
		outputDir:  outputDir,
		executable: executable,
		wrapType:   DefaultWrapType,
		priority:   command.PriorityNormal,
	}
}

// SetWrapType sets the bmxtranswrap output type (e.g., "op1a", "avid", "as02").
func (b *Builder) SetWrapType(wrapType string) RewrapCommand {
	if wrapType != "" {
		b.wrapType = wrapType
	}
	return b
}

// Program returns the bmxtranswrap executable.
func (b *Builder) Program() string {
	return b.executable
}

// BuildArgs constructs the bmxtranswrap arguments:
//
//	-t <type> -o <outputDir/base> --start <frames> --dur <frames> <input>
//
// Returns an empty slice when the clip has no frame range yet.
func (b *Builder) BuildArgs() []string {
	if !b.ready() {
		return []string{}
	}

	fr := b.clip.FrameRange
	return []string{
		"-t", b.wrapType,
		"-o", b.GetOutputPath(),
		"--start", strconv.FormatInt(fr.Start, 10),
		"--dur", strconv.FormatInt(fr.Duration, 10),
		b.clip.SourcePath,
	}
}

// DryRun returns the command line without executing it.
func (b *Builder) DryRun() (string, error) {
	if b.clip == nil {
		return "", fmt.Errorf("cannot build command: clip is nil")
	}
	if b.clip.FrameRange == nil {
		return "", fmt.Errorf("cannot build command for %s: frame range not set", b.clip.SourcePath)
	}
	return command.Format(b.executable, b.BuildArgs()), nil
}

// GetPriority returns the dispatch priority.
func (b *Builder) GetPriority() int {
	return b.priority
}

// SetPriority sets the dispatch priority.
func (b *Builder) SetPriority(priority int) command.Command {
	b.priority = priority
	return b
}

// GetTaskType returns the task type (rewrap).
func (b *Builder) GetTaskType() command.TaskType {
	return command.TaskTypeRewrap
}

// GetInputPath returns the source file path.
// Returns empty string if clip is nil.
func (b *Builder) GetInputPath() string {
	if b.clip == nil {
		return ""
	}
	return b.clip.SourcePath
}

// GetOutputPath returns the restored file path: the input's base name placed
// under the output directory.
func (b *Builder) GetOutputPath() string {
	if b.clip == nil {
		return ""
	}
	return OutputPath(b.outputDir, b.clip.SourcePath)
}

func (b *Builder) ready() bool {
	return b.clip != nil && b.clip.FrameRange != nil
}

// OutputPath derives the restored file path for input under outputDir.
// Both separators are honored so Windows-style source paths keep only
// their file name.
func OutputPath(outputDir, input string) string {
	base := input
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' || base[i] == '\\' {
			base = base[i+1:]
			break
		}
	}
	return filepath.Join(outputDir, base)
}
