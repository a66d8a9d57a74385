// Package ffprobe provides utilities for extracting metadata from media files
// using the ffprobe command-line tool.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultExecutable is the ffprobe binary looked up on PATH.
const DefaultExecutable = "ffprobe"

// ErrNoVideoStream is returned when a file has no usable video stream.
var ErrNoVideoStream = errors.New("no video stream found")

// Stream represents a media stream (audio, video, data, ...).
type Stream struct {
	Index         int            `json:"index"`
	CodecName     string         `json:"codec_name"`
	CodecType     string         `json:"codec_type"`
	CodecLongName string         `json:"codec_long_name"`
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	AvgFrameRate  string         `json:"avg_frame_rate,omitempty"`
	RFrameRate    string         `json:"r_frame_rate,omitempty"`
	TimeBase      string         `json:"time_base,omitempty"`
	SampleRate    string         `json:"sample_rate,omitempty"`
	Channels      int            `json:"channels,omitempty"`
	Duration      string         `json:"duration,omitempty"`
	Disposition   map[string]int `json:"disposition,omitempty"`
}

// IsAttachedPic reports whether the stream is cover art rather than video.
func (s *Stream) IsAttachedPic() bool {
	return s.Disposition["attached_pic"] == 1
}

// Format represents the container format information.
type Format struct {
	Filename       string `json:"filename"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// ProbeResult holds the metadata extracted from a media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// PrimaryVideo returns the first video stream that is not an attached
// picture, or nil.
func (pr *ProbeResult) PrimaryVideo() *Stream {
	for i := range pr.Streams {
		s := &pr.Streams[i]
		if s.CodecType == "video" && !s.IsAttachedPic() {
			return s
		}
	}
	return nil
}

// FrameRate returns the primary video stream's frame rate in frames per
// second. avg_frame_rate is preferred; r_frame_rate is used when the
// average is missing or "0/0".
func (pr *ProbeResult) FrameRate() (float64, error) {
	video := pr.PrimaryVideo()
	if video == nil {
		return 0, ErrNoVideoStream
	}

	var lastErr error
	for _, raw := range []string{video.AvgFrameRate, video.RFrameRate} {
		if raw == "" {
			continue
		}
		rate, err := ParseRational(raw)
		if err == nil && rate > 0 {
			return rate, nil
		}
		if err == nil {
			err = fmt.Errorf("frame rate %q is not positive", raw)
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("stream %d has no frame rate", video.Index)
	}
	return 0, lastErr
}

// ParseRational parses ffprobe rationals such as "25/1", "30000/1001" or a
// plain decimal "23.976". "0/0" parses as 0.
func ParseRational(s string) (float64, error) {
	s = strings.TrimSpace(s)
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rational %q: %w", s, err)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rational %q: %w", s, err)
	}
	if d == 0 {
		return 0, nil
	}
	return n / d, nil
}

// ParseJSON converts raw ffprobe JSON output into a ProbeResult.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}

// Prober runs an ffprobe executable. The zero value uses DefaultExecutable.
type Prober struct {
	Executable string
}

// NewProber creates a Prober for the given ffprobe path; empty means
// DefaultExecutable.
func NewProber(executable string) *Prober {
	return &Prober{Executable: executable}
}

// Probe analyzes a media file and extracts its stream and format metadata.
//
// Example:
//
//	result, err := ffprobe.NewProber("").Probe(ctx, "/media/A001C003.mxf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rate, _ := result.FrameRate()
func (p *Prober) Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	exe := p.Executable
	if exe == "" {
		exe = DefaultExecutable
	}

	// -v quiet: suppress verbose output
	// -print_format json: output in JSON format
	// -show_streams / -show_format: stream and container sections only
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		sourcePath,
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w (stderr: %s)", sourcePath, err, strings.TrimSpace(stderr.String()))
	}

	return ParseJSON(output)
}

// FrameRate probes path and returns its primary video frame rate. It makes
// Prober usable as the handle pass's frame rate lookup.
func (p *Prober) FrameRate(ctx context.Context, path string) (float64, error) {
	result, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	rate, err := result.FrameRate()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return rate, nil
}
