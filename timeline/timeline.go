// Package timeline models an edited timeline as tracks of items and reads
// it from interchange files.
//
// Only what consolidation needs is modelled: track kinds, clip names and
// source ranges. Effects, markers and metadata are ignored by the readers.
package timeline

import (
	"errors"
	"fmt"
	"math"

	"consolidate/models"
)

// TrackKind identifies the media carried by a track.
type TrackKind string

const (
	KindVideo TrackKind = "Video"
	KindAudio TrackKind = "Audio"
)

// ItemKind identifies what an item in a track is.
type ItemKind string

const (
	ItemClip       ItemKind = "Clip"
	ItemGap        ItemKind = "Gap"
	ItemTransition ItemKind = "Transition"
	ItemOther      ItemKind = "Other"
)

// RationalTime is a point or length in time expressed as a value at a rate,
// e.g. 250 at 25 fps.
type RationalTime struct {
	Value float64 `json:"value"`
	Rate  float64 `json:"rate"`
}

// Seconds converts the time to seconds. A zero rate yields 0.
func (t RationalTime) Seconds() float64 {
	if t.Rate == 0 {
		return 0
	}
	return t.Value / t.Rate
}

// Frames returns the time as a whole frame count at its own rate.
func (t RationalTime) Frames() int64 {
	return int64(math.RoundToEven(t.Value))
}

// TimeRange is a start and duration in the timeline's rational time.
type TimeRange struct {
	StartTime RationalTime `json:"start_time"`
	Duration  RationalTime `json:"duration"`
}

// Seconds converts the range into a seconds range.
func (r TimeRange) Seconds() models.TimeRange {
	return models.TimeRange{
		Start:    r.StartTime.Seconds(),
		Duration: r.Duration.Seconds(),
	}
}

// Item is one element of a track.
//
// SourceRange is nil when the interchange file did not specify which part
// of the source media the clip uses.
type Item struct {
	Kind        ItemKind
	Name        string
	SourceRange *TimeRange
}

// Track is an ordered sequence of items.
type Track struct {
	Name  string
	Kind  TrackKind
	Items []Item
}

// Timeline is an ordered set of tracks.
type Timeline struct {
	Name   string
	Tracks []Track
}

// VideoClips returns every clip item of every video track, in track order
// then item order. Gaps, transitions and audio tracks are skipped.
func (tl *Timeline) VideoClips() []Item {
	var clips []Item
	for _, track := range tl.Tracks {
		if track.Kind != KindVideo {
			continue
		}
		for _, item := range track.Items {
			if item.Kind == ItemClip {
				clips = append(clips, item)
			}
		}
	}
	return clips
}

// ErrUnsupportedFormat is returned when no reader handles a file extension.
var ErrUnsupportedFormat = errors.New("unsupported timeline format")

// ParseError reports a timeline file that could not be read.
type ParseError struct {
	Path string
	Line int // 0 when the format has no meaningful line numbers
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("timeline %s: %s: %v", loc, e.Msg, e.Err)
	}
	return fmt.Sprintf("timeline %s: %s", loc, e.Msg)
}

// Unwrap returns the underlying cause, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}
