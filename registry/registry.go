// Package registry consolidates timeline references to the same source
// media into a single covering range per file.
package registry

import (
	"fmt"

	"consolidate/models"
)

// ErrEmptyPath is returned when a clip is inserted without a source path.
var ErrEmptyPath = models.ErrEmptySourcePath

// ClipRegistry is an insertion-ordered collection of CutClips keyed by
// source path.
//
// Each entry's range is the convex hull of every range inserted for its
// path: two references with a gap between them become one range that
// includes the gap, so every source is restored as a single file.
//
// ClipRegistry is not safe for concurrent use; merging is order dependent
// and runs on a single goroutine.
type ClipRegistry struct {
	entries []*models.CutClip
	index   map[string]int
	inserts int
}

// New creates an empty registry.
func New() *ClipRegistry {
	return &ClipRegistry{
		index: make(map[string]int),
	}
}

// InsertOrMerge adds a new entry for path, or widens the existing entry so
// that it also covers r.
//
// The start is lowered when r begins earlier and the duration is recomputed
// against that start so the entry ends at the later end. The registry is
// left unchanged when path or r is invalid.
func (cr *ClipRegistry) InsertOrMerge(path string, r models.TimeRange) error {
	clip := &models.CutClip{SourcePath: path, Range: r}
	if err := clip.Validate(); err != nil {
		return fmt.Errorf("insert %q: %w", path, err)
	}
	cr.inserts++

	i, exists := cr.index[path]
	if !exists {
		cr.index[path] = len(cr.entries)
		cr.entries = append(cr.entries, clip)
		return nil
	}

	// Lowering the start re-anchors the duration to the old end, so the
	// entry always ends at the later of the two ends.
	cr.entries[i].Range = cr.entries[i].Range.Union(r)
	return nil
}

// Get returns the entry for path, if any.
func (cr *ClipRegistry) Get(path string) (*models.CutClip, bool) {
	i, ok := cr.index[path]
	if !ok {
		return nil, false
	}
	return cr.entries[i], true
}

// Entries returns the registered clips in first-insertion order. The
// returned clips are the registry's own; callers such as the handle pass
// may update their frame ranges.
func (cr *ClipRegistry) Entries() []*models.CutClip {
	out := make([]*models.CutClip, len(cr.entries))
	copy(out, cr.entries)
	return out
}

// Len returns the number of distinct source paths.
func (cr *ClipRegistry) Len() int {
	return len(cr.entries)
}

// Inserts returns how many ranges were accepted, merged or not.
func (cr *ClipRegistry) Inserts() int {
	return cr.inserts
}
