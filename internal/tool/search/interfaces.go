package search

import (
	"context"
	"os"

	"github.com/Cyclone1070/codeshell/internal/tool/service/walk"
)

// fileSystem defines the minimal filesystem interface needed by the engine.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFileLimit(path string, maxBytes int64) ([]byte, error)
}

// treeWalker enumerates candidate files under a project root.
type treeWalker interface {
	Walk(ctx context.Context, root string, opts walk.Options) ([]walk.Entry, error)
}
