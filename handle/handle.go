// Package handle converts consolidated clip ranges from seconds into source
// frames and pads them with handle frames.
package handle

import (
	"context"
	"fmt"
	"math"

	"consolidate/models"
)

// FrameRateLookup returns the native frame rate of a source media file.
//
// This interface decouples the handle pass from the probing tool (ffprobe,
// mediainfo, ...), so tests can supply fixed rates.
type FrameRateLookup interface {
	FrameRate(ctx context.Context, path string) (float64, error)
}

// LookupFunc adapts a plain function to FrameRateLookup.
type LookupFunc func(ctx context.Context, path string) (float64, error)

// FrameRate calls f.
func (f LookupFunc) FrameRate(ctx context.Context, path string) (float64, error) {
	return f(ctx, path)
}

// Round is the single rounding rule used wherever frames are rounded:
// half-to-even, so 0.5 frame ties do not drift in one direction.
func Round(frames float64) int64 {
	return int64(math.RoundToEven(frames))
}

// Pad converts a seconds range to frames at rate and pads it by handle
// frames on each side.
//
// The leading pad is reduced so the start never goes below frame 0 and the
// duration grows by handle + reduction. Rounding happens once, after all
// arithmetic. Negative handles are treated as 0.
func Pad(r models.TimeRange, rate float64, handle int) models.FrameRange {
	h := float64(handle)
	if h < 0 {
		h = 0
	}
	startFrames := r.Start * rate
	durationFrames := r.Duration * rate

	reduction := math.Min(h, startFrames)
	return models.FrameRange{
		Start:    Round(startFrames - reduction),
		Duration: Round(h + reduction + durationFrames),
	}
}

// Apply sets FrameRange and FrameRate on every entry, looking up each
// source's rate once.
//
// Entries whose rate cannot be determined keep a nil FrameRange and are
// returned as failures; the remaining entries are still converted. A
// cancelled context stops the pass and marks the unprocessed entries failed.
func Apply(ctx context.Context, entries []*models.CutClip, handle int, lookup FrameRateLookup) []models.ConversionFailure {
	var failures []models.ConversionFailure
	rates := make(map[string]float64, len(entries))

	for _, clip := range entries {
		if err := ctx.Err(); err != nil {
			failures = append(failures, models.ConversionFailure{SourcePath: clip.SourcePath, Err: err})
			continue
		}

		rate, seen := rates[clip.SourcePath]
		if !seen {
			var err error
			rate, err = lookup.FrameRate(ctx, clip.SourcePath)
			if err == nil && (rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0)) {
				err = fmt.Errorf("unusable frame rate %v", rate)
			}
			if err != nil {
				failures = append(failures, models.ConversionFailure{
					SourcePath: clip.SourcePath,
					Err:        fmt.Errorf("frame rate lookup: %w", err),
				})
				continue
			}
			rates[clip.SourcePath] = rate
		}

		fr := Pad(clip.Range, rate, handle)
		clip.FrameRange = &fr
		clip.FrameRate = rate
	}

	return failures
}
