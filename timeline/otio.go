package timeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// OTIOReader reads OpenTimelineIO JSON (.otio) files.
type OTIOReader struct{}

// otioNode is the subset of an OTIO object the reader looks at. Every
// schema shares the same JSON shape, so one struct covers timelines,
// stacks, tracks and items.
type otioNode struct {
	Schema      string     `json:"OTIO_SCHEMA"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Tracks      *otioNode  `json:"tracks"`
	Children    []otioNode `json:"children"`
	SourceRange *TimeRange `json:"source_range"`
}

// schemaName strips the version from an OTIO_SCHEMA value: "Clip.2" -> "Clip".
func (n *otioNode) schemaName() string {
	name, _, _ := strings.Cut(n.Schema, ".")
	return name
}

// Read decodes an OTIO document. A SerializableCollection is accepted when
// it holds at least one Timeline; the first one is used.
func (OTIOReader) Read(r io.Reader, name string) (*Timeline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Path: name, Msg: "cannot read", Err: err}
	}

	var root otioNode
	if err := json.Unmarshal(data, &root); err != nil {
		perr := &ParseError{Path: name, Msg: "invalid OTIO JSON", Err: err}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			perr.Line = lineAt(data, syntaxErr.Offset)
		}
		return nil, perr
	}

	node, err := findTimeline(&root)
	if err != nil {
		return nil, &ParseError{Path: name, Msg: "no timeline", Err: err}
	}

	tl := &Timeline{Name: node.Name}
	if node.Tracks == nil {
		return tl, nil
	}

	for i := range node.Tracks.Children {
		child := &node.Tracks.Children[i]
		if child.schemaName() != "Track" {
			continue
		}
		track, err := convertTrack(child)
		if err != nil {
			return nil, &ParseError{Path: name, Msg: fmt.Sprintf("track %d", i), Err: err}
		}
		tl.Tracks = append(tl.Tracks, track)
	}
	return tl, nil
}

func findTimeline(root *otioNode) (*otioNode, error) {
	switch root.schemaName() {
	case "Timeline":
		return root, nil
	case "SerializableCollection":
		for i := range root.Children {
			if root.Children[i].schemaName() == "Timeline" {
				return &root.Children[i], nil
			}
		}
		return nil, errors.New("collection holds no Timeline")
	case "":
		return nil, errors.New("missing OTIO_SCHEMA")
	default:
		return nil, fmt.Errorf("top-level schema %q is not a Timeline", root.Schema)
	}
}

func convertTrack(n *otioNode) (Track, error) {
	track := Track{Name: n.Name, Kind: TrackKind(n.Kind)}
	for i := range n.Children {
		child := &n.Children[i]
		item := Item{Name: child.Name, Kind: itemKind(child.schemaName())}
		if item.Kind == ItemClip && child.SourceRange != nil {
			sr := *child.SourceRange
			if sr.StartTime.Rate < 0 || sr.Duration.Rate < 0 {
				return Track{}, fmt.Errorf("clip %q has a negative rate", child.Name)
			}
			item.SourceRange = &sr
		}
		track.Items = append(track.Items, item)
	}
	return track, nil
}

func itemKind(schema string) ItemKind {
	switch schema {
	case "Clip":
		return ItemClip
	case "Gap":
		return ItemGap
	case "Transition":
		return ItemTransition
	default:
		return ItemOther
	}
}

// lineAt returns the 1-based line containing byte offset.
func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}
