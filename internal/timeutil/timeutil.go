// Package timeutil provides time and SMPTE timecode helpers shared by the
// timeline readers and log output.
package timeutil

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidTimecode is returned for malformed or out-of-range timecodes.
var ErrInvalidTimecode = errors.New("invalid timecode")

// FormatSeconds converts seconds to HH:MM:SS.MS format for logs.
//
// Example:
//
//	FormatSeconds(0)      // "00:00:00.00"
//	FormatSeconds(90)     // "00:01:30.00"
//	FormatSeconds(3661)   // "01:01:01.00"
//	FormatSeconds(30.53)  // "00:00:30.53"
func FormatSeconds(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
}

// NominalRate returns the integer frame count per timecode second for rate,
// e.g. 30 for 29.97.
func NominalRate(rate float64) int64 {
	return int64(math.Round(rate))
}

// dropFrames returns how many frame numbers are skipped per minute in drop
// frame timecode: 2 at 29.97, 4 at 59.94, 0 when rate has no drop variant.
func dropFrames(nominal int64) int64 {
	if nominal%30 != 0 {
		return 0
	}
	return nominal / 15
}

// ParseTimecode converts "HH:MM:SS:FF" at rate into a frame count.
//
// A ';' or ',' before the frame field marks drop frame timecode, which is
// only valid for 29.97 and 59.94 style rates.
//
// Example:
//
//	ParseTimecode("01:00:10:00", 25)        // 90250
//	ParseTimecode("00:01:00;02", 30000/1001) // 1800
func ParseTimecode(tc string, rate float64) (int64, error) {
	tc = strings.TrimSpace(tc)
	nominal := NominalRate(rate)
	if nominal <= 0 {
		return 0, fmt.Errorf("%w: rate %v", ErrInvalidTimecode, rate)
	}
	if len(tc) < 11 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimecode, tc)
	}

	sep := tc[len(tc)-3]
	dropFrame := sep == ';' || sep == ','
	if !dropFrame && sep != ':' && sep != '.' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimecode, tc)
	}

	fields := strings.Split(tc[:len(tc)-3], ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimecode, tc)
	}
	fields = append(fields, tc[len(tc)-2:])

	var parts [4]int64
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimecode, tc)
		}
		parts[i] = v
	}
	h, m, s, f := parts[0], parts[1], parts[2], parts[3]
	if m >= 60 || s >= 60 || f >= nominal {
		return 0, fmt.Errorf("%w: %q out of range at %d fps", ErrInvalidTimecode, tc, nominal)
	}

	frames := (h*3600+m*60+s)*nominal + f
	if !dropFrame {
		return frames, nil
	}

	drop := dropFrames(nominal)
	if drop == 0 {
		return 0, fmt.Errorf("%w: drop frame %q at %v fps", ErrInvalidTimecode, tc, rate)
	}
	if s == 0 && m%10 != 0 && f < drop {
		return 0, fmt.Errorf("%w: %q is a dropped frame number", ErrInvalidTimecode, tc)
	}
	totalMinutes := h*60 + m
	return frames - drop*(totalMinutes-totalMinutes/10), nil
}

// FormatTimecode converts a frame count at rate into "HH:MM:SS:FF", or
// "HH:MM:SS;FF" when dropFrame is set and the rate supports it.
func FormatTimecode(frames int64, rate float64, dropFrame bool) string {
	nominal := NominalRate(rate)
	if nominal <= 0 {
		return ""
	}
	sign := ""
	if frames < 0 {
		sign = "-"
		frames = -frames
	}

	sep := ":"
	if drop := dropFrames(nominal); dropFrame && drop > 0 {
		sep = ";"
		perMinute := nominal*60 - drop
		perTenMinutes := nominal*600 - drop*9
		tens := frames / perTenMinutes
		rem := frames % perTenMinutes
		frames += drop * 9 * tens
		if rem > drop {
			frames += drop * ((rem - drop) / perMinute)
		}
	}

	f := frames % nominal
	totalSeconds := frames / nominal
	return fmt.Sprintf("%s%02d:%02d:%02d%s%02d",
		sign, totalSeconds/3600, (totalSeconds%3600)/60, totalSeconds%60, sep, f)
}
