package ffprobe

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"testing"
)

const sampleJSON = `{
	"streams": [
		{
			"index": 0,
			"codec_name": "mjpeg",
			"codec_type": "video",
			"avg_frame_rate": "0/0",
			"r_frame_rate": "90000/1",
			"disposition": {"default": 0, "attached_pic": 1}
		},
		{
			"index": 1,
			"codec_name": "dnxhd",
			"codec_type": "video",
			"width": 1920,
			"height": 1080,
			"avg_frame_rate": "25/1",
			"r_frame_rate": "25/1",
			"time_base": "1/25",
			"disposition": {"default": 1, "attached_pic": 0}
		},
		{
			"index": 2,
			"codec_name": "pcm_s24le",
			"codec_type": "audio",
			"sample_rate": "48000",
			"channels": 2
		}
	],
	"format": {
		"filename": "A001C003.mxf",
		"format_name": "mxf",
		"duration": "120.040000",
		"size": "104857600",
		"bit_rate": "6990506"
	}
}`

func TestParseJSON(t *testing.T) {
	result, err := ParseJSON([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}

	if len(result.Streams) != 3 {
		t.Fatalf("Expected 3 streams, got %d", len(result.Streams))
	}
	if result.Format.FormatName != "mxf" {
		t.Errorf("FormatName = %s; want mxf", result.Format.FormatName)
	}
	if !result.Streams[0].IsAttachedPic() {
		t.Error("Stream 0 should be an attached picture")
	}
	if result.Format.Duration != "120.040000" {
		t.Errorf("Format.Duration = %s; want 120.040000", result.Format.Duration)
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	if _, err := ParseJSON([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestProbeResult_FrameRate(t *testing.T) {
	result, err := ParseJSON([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}

	rate, err := result.FrameRate()
	if err != nil {
		t.Fatalf("FrameRate failed: %v", err)
	}
	if rate != 25 {
		t.Errorf("FrameRate() = %v; want 25 (attached picture must be skipped)", rate)
	}
}

func TestProbeResult_FrameRateFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		streams   []Stream
		expected  float64
		expectErr bool
	}{
		{
			name:     "avg frame rate preferred",
			streams:  []Stream{{CodecType: "video", AvgFrameRate: "30000/1001", RFrameRate: "60000/1001"}},
			expected: 30000.0 / 1001.0,
		},
		{
			name:     "falls back to r_frame_rate on 0/0",
			streams:  []Stream{{CodecType: "video", AvgFrameRate: "0/0", RFrameRate: "24/1"}},
			expected: 24,
		},
		{
			name:     "falls back when avg is missing",
			streams:  []Stream{{CodecType: "video", RFrameRate: "50/1"}},
			expected: 50,
		},
		{
			name:      "no video stream",
			streams:   []Stream{{CodecType: "audio"}},
			expectErr: true,
		},
		{
			name:      "no frame rate at all",
			streams:   []Stream{{CodecType: "video"}},
			expectErr: true,
		},
		{
			name:      "only zero rates",
			streams:   []Stream{{CodecType: "video", AvgFrameRate: "0/0", RFrameRate: "0/1"}},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &ProbeResult{Streams: tt.streams}
			rate, err := result.FrameRate()
			if tt.expectErr {
				if err == nil {
					t.Errorf("Expected error, got rate %v", rate)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if math.Abs(rate-tt.expected) > 1e-9 {
				t.Errorf("FrameRate() = %v; want %v", rate, tt.expected)
			}
		})
	}
}

func TestProbeResult_NoVideoStreamError(t *testing.T) {
	result := &ProbeResult{}
	if _, err := result.FrameRate(); !errors.Is(err, ErrNoVideoStream) {
		t.Errorf("Expected ErrNoVideoStream, got %v", err)
	}
}

func TestParseRational(t *testing.T) {
	tests := []struct {
		input     string
		expected  float64
		expectErr bool
	}{
		{"25/1", 25, false},
		{"30000/1001", 30000.0 / 1001.0, false},
		{"24000/1001", 24000.0 / 1001.0, false},
		{"0/0", 0, false},
		{"23.976", 23.976, false},
		{" 50/1 ", 50, false},
		{"abc", 0, true},
		{"25/x", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRational(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("ParseRational(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRational(%q) error: %v", tt.input, err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ParseRational(%q) = %v; want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestProbe_EmptyPath(t *testing.T) {
	_, err := NewProber("").Probe(context.Background(), "")
	if err == nil {
		t.Error("Expected error for empty path, got nil")
	}
}

func TestProbe_NonExistentFile(t *testing.T) {
	if _, err := exec.LookPath(DefaultExecutable); err != nil {
		t.Skip("ffprobe not found in PATH, skipping test")
	}

	_, err := NewProber("").Probe(context.Background(), "/nonexistent/file.mxf")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestProber_MissingExecutable(t *testing.T) {
	p := NewProber("/nonexistent/bin/ffprobe")
	if _, err := p.FrameRate(context.Background(), "A.mxf"); err == nil {
		t.Error("Expected error for missing ffprobe executable")
	}
}
