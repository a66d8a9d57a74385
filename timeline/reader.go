package timeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Reader decodes a timeline from an interchange format.
type Reader interface {
	Read(r io.Reader, name string) (*Timeline, error)
}

// Options tune format-specific reading.
type Options struct {
	// EDLRate is the frame rate used to interpret EDL timecodes, which
	// carry no rate of their own. Zero means DefaultEDLRate.
	EDLRate float64
}

// ReaderFor picks a reader from the file extension:
// .otio and .json are OpenTimelineIO JSON, .edl is CMX 3600.
func ReaderFor(path string, opts Options) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".otio", ".json":
		return OTIOReader{}, nil
	case ".edl":
		return EDLReader{Rate: opts.EDLRate}, nil
	default:
		return nil, &ParseError{Path: path, Msg: "cannot choose a reader", Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))}
	}
}

// ReadFile reads the timeline at path with the reader chosen by ReaderFor.
func ReadFile(path string, opts Options) (*Timeline, error) {
	reader, err := ReaderFor(path, opts)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: "cannot open file", Err: err}
	}
	defer f.Close()

	return reader.Read(f, path)
}
