package fsutil

import (
	"path/filepath"
	"strings"
)

// Relativize strips root from the front of path when path lies under it and
// normalizes every separator to a forward slash. Paths outside root are
// returned unchanged apart from the separator normalization. The result is for
// display only.
func Relativize(path, root string) string {
	rel := path
	if root != "" {
		cleanPath := filepath.Clean(path)
		cleanRoot := filepath.Clean(root)
		prefix := strings.TrimSuffix(cleanRoot, string(filepath.Separator)) + string(filepath.Separator)
		switch {
		case cleanPath == cleanRoot:
			rel = ""
		case strings.HasPrefix(cleanPath, prefix):
			rel = cleanPath[len(prefix):]
		}
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "\\", "/")
}
