// Package resolver maps timeline clip names to media files on disk.
package resolver

import (
	"os"
	"path/filepath"
)

// Extensions are tried in order when resolving a clip name.
var Extensions = []string{".mxf", ".mp4"}

// Resolve returns the first existing file named clipName plus one of
// Extensions under sourceFolder. When sourceFolder is empty or nothing
// matches, clipName is returned unchanged and found is false.
//
// Example:
//
//	path, ok := resolver.Resolve("/media", "A001C003")
//	// "/media/A001C003.mxf", true when that file exists
func Resolve(sourceFolder, clipName string) (path string, found bool) {
	if sourceFolder == "" {
		return clipName, false
	}
	for _, ext := range Extensions {
		candidate := filepath.Join(sourceFolder, clipName+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return clipName, false
}
