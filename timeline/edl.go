package timeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"consolidate/internal/timeutil"
)

// DefaultEDLRate is used when an EDLReader has no rate configured.
const DefaultEDLRate = 25.0

// EDLReader reads CMX 3600 edit decision lists.
//
// Each event becomes one item. Video events go to a "V" track and audio
// events to an "A" track; an event on both (e.g. "B" or "AA/V") lands in
// both. Black and color-bar reels become gaps. The item name is taken from
// a following "* FROM CLIP NAME:" comment when present, else the reel.
type EDLReader struct {
	Rate float64
}

type edlEvent struct {
	reel       string
	channels   string
	transition string
	srcIn      int64
	srcOut     int64
}

// Read decodes an EDL.
func (e EDLReader) Read(r io.Reader, name string) (*Timeline, error) {
	rate := e.Rate
	if rate <= 0 {
		rate = DefaultEDLRate
	}

	tl := &Timeline{}
	video := Track{Name: "V", Kind: KindVideo}
	audio := Track{Name: "A", Kind: KindAudio}

	// Indices of the items created by the most recent event, so a
	// trailing clip name comment can rename them.
	lastVideo, lastAudio := -1, -1
	dropFrame := false

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		upper := strings.ToUpper(line)

		switch {
		case line == "":
			continue
		case strings.HasPrefix(upper, "TITLE:"):
			tl.Name = strings.TrimSpace(line[len("TITLE:"):])
		case strings.HasPrefix(upper, "FCM:"):
			dropFrame = strings.Contains(upper, "DROP") && !strings.Contains(upper, "NON-DROP")
		case strings.HasPrefix(line, "*"):
			clipName, ok := clipNameComment(line)
			if !ok {
				continue
			}
			if lastVideo >= 0 && video.Items[lastVideo].Kind == ItemClip {
				video.Items[lastVideo].Name = clipName
			}
			if lastAudio >= 0 && audio.Items[lastAudio].Kind == ItemClip {
				audio.Items[lastAudio].Name = clipName
			}
		case unicode.IsDigit(rune(line[0])):
			ev, err := parseEvent(line, rate, dropFrame)
			if err != nil {
				return nil, &ParseError{Path: name, Line: lineNo, Msg: "invalid event", Err: err}
			}
			lastVideo, lastAudio = -1, -1
			if ev.isVideo() {
				video.Items = appendEvent(video.Items, ev, rate)
				lastVideo = len(video.Items) - 1
			}
			if ev.isAudio() {
				audio.Items = appendEvent(audio.Items, ev, rate)
				lastAudio = len(audio.Items) - 1
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: name, Line: lineNo, Msg: "cannot read", Err: err}
	}

	if len(video.Items) > 0 {
		tl.Tracks = append(tl.Tracks, video)
	}
	if len(audio.Items) > 0 {
		tl.Tracks = append(tl.Tracks, audio)
	}
	return tl, nil
}

// parseEvent parses "001  REEL  V  C  [dur]  srcIn srcOut recIn recOut".
func parseEvent(line string, rate float64, dropFrame bool) (edlEvent, error) {
	fields := strings.Fields(line)
	if len(fields) < 8 {
		return edlEvent{}, fmt.Errorf("expected at least 8 fields, got %d", len(fields))
	}

	tcs := fields[len(fields)-4:]
	frames := make([]int64, 4)
	for i, tc := range tcs {
		if dropFrame {
			tc = asDropFrame(tc)
		}
		f, err := timeutil.ParseTimecode(tc, rate)
		if err != nil {
			return edlEvent{}, err
		}
		frames[i] = f
	}
	if frames[1] < frames[0] {
		return edlEvent{}, fmt.Errorf("source out %s is before source in %s", tcs[1], tcs[0])
	}

	return edlEvent{
		reel:       fields[1],
		channels:   strings.ToUpper(fields[2]),
		transition: strings.ToUpper(fields[3]),
		srcIn:      frames[0],
		srcOut:     frames[1],
	}, nil
}

// asDropFrame rewrites the last ':' of tc as ';' when the FCM line declares
// drop frame but the timecodes use colons throughout.
func asDropFrame(tc string) string {
	if len(tc) >= 3 && tc[len(tc)-3] == ':' {
		return tc[:len(tc)-3] + ";" + tc[len(tc)-2:]
	}
	return tc
}

func (ev edlEvent) isVideo() bool {
	return ev.channels == "B" || strings.Contains(ev.channels, "V")
}

func (ev edlEvent) isAudio() bool {
	return ev.channels == "B" || strings.Contains(ev.channels, "A")
}

func (ev edlEvent) isBlack() bool {
	switch strings.ToUpper(ev.reel) {
	case "BL", "BLK", "BLACK", "BARS":
		return true
	}
	return false
}

func appendEvent(items []Item, ev edlEvent, rate float64) []Item {
	if ev.transition != "C" {
		items = append(items, Item{Kind: ItemTransition, Name: ev.transition})
	}
	if ev.isBlack() {
		return append(items, Item{Kind: ItemGap, Name: ev.reel})
	}
	return append(items, Item{
		Kind: ItemClip,
		Name: ev.reel,
		SourceRange: &TimeRange{
			StartTime: RationalTime{Value: float64(ev.srcIn), Rate: rate},
			Duration:  RationalTime{Value: float64(ev.srcOut - ev.srcIn), Rate: rate},
		},
	})
}

// clipNameComment extracts the name from "* FROM CLIP NAME: <name>".
func clipNameComment(line string) (string, bool) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "*"))
	const prefix = "FROM CLIP NAME:"
	if len(body) < len(prefix) || !strings.EqualFold(body[:len(prefix)], prefix) {
		return "", false
	}
	name := strings.TrimSpace(body[len(prefix):])
	return name, name != ""
}
