// Package path validates project roots given on the command line.
package path

import (
	"fmt"
	"os"
	"path/filepath"
)

// CanonicaliseRoot makes root absolute, resolves symlinks and checks that the
// result is a directory. An empty root means the working directory.
func CanonicaliseRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &ProjectRootError{Root: root, Cause: err}
	}

	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &ProjectRootError{Root: absRoot, Cause: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &ProjectRootError{Root: resolved, Cause: err}
	}
	if !info.IsDir() {
		return "", &ProjectRootError{Root: resolved, Cause: fmt.Errorf("%w: %s", ErrNotADirectory, resolved)}
	}
	return resolved, nil
}
