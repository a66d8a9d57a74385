// Package playlist renders timeline clips as an ffconcat playlist that
// ffmpeg's concat demuxer can play back or render.
package playlist

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"consolidate/models"
)

// Header is the first line of every ffconcat playlist.
const Header = "ffconcat version 1.0"

// FFConcat renders clips in order, one file/inpoint/outpoint block each.
//
// Paths use forward slashes, which ffmpeg expects on every platform, and
// single quotes inside a path are escaped as '\''. The outpoint is
// start+duration rounded to 3 decimals.
//
// Example output:
//
//	ffconcat version 1.0
//	file '/media/A001C003.mxf'
//	inpoint 10
//	outpoint 15
func FFConcat(clips []models.CutClip) string {
	lines := make([]string, 0, 1+3*len(clips))
	lines = append(lines, Header)

	for _, clip := range clips {
		path := strings.ReplaceAll(clip.SourcePath, `\`, "/")
		path = strings.ReplaceAll(path, "'", `'\''`)

		lines = append(lines,
			fmt.Sprintf("file '%s'", path),
			"inpoint "+formatSeconds(clip.Range.Start),
			"outpoint "+formatSeconds(round3(clip.Range.End())),
		)
	}

	return strings.Join(lines, "\n")
}

// WriteFile writes an ffconcat playlist to path, creating parent
// directories as needed.
func WriteFile(path string, clips []models.CutClip) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create playlist directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(FFConcat(clips)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	return nil
}

func round3(v float64) float64 {
	return math.RoundToEven(v*1000) / 1000
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
