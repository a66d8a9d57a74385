package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySourcePath is returned when a clip has no source path.
var ErrEmptySourcePath = errors.New("source path cannot be empty")

// CutClip is a consolidated reference to one source media file.
//
// Range is set when the clip is first registered and widened by later
// references to the same SourcePath. FrameRange stays nil until the handle
// pass converts Range into frames of the source's native rate; FrameRate
// records the rate used for that conversion.
type CutClip struct {
	SourcePath string      `json:"source_path"`
	Range      TimeRange   `json:"range"`
	FrameRange *FrameRange `json:"frame_range,omitempty"`
	FrameRate  float64     `json:"frame_rate,omitempty"`
}

// Validate checks if the CutClip has valid data.
func (c *CutClip) Validate() error {
	if strings.TrimSpace(c.SourcePath) == "" {
		return ErrEmptySourcePath
	}
	return c.Range.Validate()
}

// Converted reports whether the handle pass has assigned a frame range.
func (c *CutClip) Converted() bool {
	return c.FrameRange != nil
}

// ConversionFailure records a clip whose seconds range could not be turned
// into frames, typically because the source frame rate was unreadable.
type ConversionFailure struct {
	SourcePath string
	Err        error
}

func (f ConversionFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.SourcePath, f.Err)
}

// Unwrap returns the underlying lookup error.
func (f ConversionFailure) Unwrap() error {
	return f.Err
}
