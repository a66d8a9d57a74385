// Package models provides core data structures for the consolidation pipeline.
package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned when a range has a negative, NaN or infinite
// start or duration.
var ErrInvalidRange = errors.New("invalid time range")

// TimeRange is a span of media time expressed in seconds.
//
// Start and Duration use float64 to preserve fractional seconds coming from
// the timeline (e.g. 1001/30000 based NTSC rates).
type TimeRange struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns Start + Duration.
func (r TimeRange) End() float64 {
	return r.Start + r.Duration
}

// Validate checks that both fields are finite and non-negative.
func (r TimeRange) Validate() error {
	if math.IsNaN(r.Start) || math.IsInf(r.Start, 0) {
		return fmt.Errorf("%w: start %v is not finite", ErrInvalidRange, r.Start)
	}
	if math.IsNaN(r.Duration) || math.IsInf(r.Duration, 0) {
		return fmt.Errorf("%w: duration %v is not finite", ErrInvalidRange, r.Duration)
	}
	if r.Start < 0 {
		return fmt.Errorf("%w: start %v is negative", ErrInvalidRange, r.Start)
	}
	if r.Duration < 0 {
		return fmt.Errorf("%w: duration %v is negative", ErrInvalidRange, r.Duration)
	}
	return nil
}

// Union returns the smallest range covering both r and other. Any gap
// between the two is included.
func (r TimeRange) Union(other TimeRange) TimeRange {
	start := math.Min(r.Start, other.Start)
	end := math.Max(r.End(), other.End())
	return TimeRange{Start: start, Duration: end - start}
}

// String formats the range as [start, end] in seconds.
func (r TimeRange) String() string {
	return fmt.Sprintf("[%gs, %gs]", r.Start, r.End())
}

// FrameRange is a span of media expressed in whole frames of the source
// file's native rate.
type FrameRange struct {
	Start    int64 `json:"start"`
	Duration int64 `json:"duration"`
}

// End returns Start + Duration.
func (r FrameRange) End() int64 {
	return r.Start + r.Duration
}

// String formats the range as start+duration frames.
func (r FrameRange) String() string {
	return fmt.Sprintf("%d+%d frames", r.Start, r.Duration)
}
