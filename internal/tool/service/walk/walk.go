// Package walk enumerates the candidate files of a project tree.
package walk

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/codeshell/internal/tool/service/git"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
)

// Options selects which files a walk yields.
type Options struct {
	// IncludeIgnored disables ignore-file filtering. Hidden files are yielded
	// in both modes.
	IncludeIgnored bool
	// ExcludePatterns drops every entry whose full path contains one of the
	// patterns as a plain substring.
	ExcludePatterns []string
	// IncludeGlobs keeps only files whose root-relative slash path matches at
	// least one doublestar glob. Empty keeps every file.
	IncludeGlobs []string
}

// Entry is one regular file found under the root.
type Entry struct {
	Path    string // absolute path under the root as given
	RelPath string // root-relative, forward slashes
	Size    int64
}

// RootUnreadableError is returned when the walk root cannot be listed.
type RootUnreadableError struct {
	Path  string
	Cause error
}

func (e *RootUnreadableError) Error() string {
	return fmt.Sprintf("failed to read directory %s: %v", e.Path, e.Cause)
}
func (e *RootUnreadableError) Unwrap() error { return e.Cause }
func (e *RootUnreadableError) IOError() bool { return true }

// InvalidGlobError is returned when an include glob is malformed.
type InvalidGlobError struct {
	Glob string
}

func (e *InvalidGlobError) Error() string {
	return fmt.Sprintf("invalid include glob: %s", e.Glob)
}
func (e *InvalidGlobError) InvalidInput() bool { return true }

// fileSystem defines the filesystem operations needed to read ignore files.
type fileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// Walker lists the regular files of a project tree in lexical order.
type Walker struct {
	fs     fileSystem
	global billy.Filesystem
	logger *slog.Logger
}

// NewWalker creates a Walker. global is the filesystem used to locate the
// user and system excludes files; nil disables them.
func NewWalker(fs fileSystem, global billy.Filesystem, logger *slog.Logger) *Walker {
	if fs == nil {
		panic("fs is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Walker{fs: fs, global: global, logger: logger}
}

// Walk returns every regular file under root that passes the filters in
// opts. Unreadable subdirectories are skipped; an unreadable root fails the
// walk. Symlinks are not followed, except for root itself.
func (w *Walker) Walk(ctx context.Context, root string, opts Options) ([]Entry, error) {
	for _, g := range opts.IncludeGlobs {
		if !doublestar.ValidatePattern(g) {
			return nil, &InvalidGlobError{Glob: g}
		}
	}

	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, &RootUnreadableError{Path: root, Cause: err}
	}

	var ignore *git.IgnoreMatcher
	if !opts.IncludeIgnored {
		ignore = git.NewIgnoreMatcher(walkRoot, w.fs, w.global, w.logger)
	}

	var entries []Entry
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path == walkRoot {
			if err != nil {
				return &RootUnreadableError{Path: root, Cause: err}
			}
			if ignore != nil {
				w.loadIgnoreRules(ignore, "")
			}
			return nil
		}

		rel, relErr := filepath.Rel(walkRoot, path)
		if relErr != nil {
			return nil
		}
		fullPath := filepath.Join(root, rel)
		relSlash := filepath.ToSlash(rel)

		if err != nil {
			// ReadDir failed for a subdirectory; its children are skipped.
			w.logger.Debug("skipping unreadable entry", "path", fullPath, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if excluded(fullPath, opts.ExcludePatterns) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if ignore != nil {
				if ignore.ShouldIgnore(relSlash, true) {
					return fs.SkipDir
				}
				w.loadIgnoreRules(ignore, relSlash)
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if ignore != nil && ignore.ShouldIgnore(relSlash, false) {
			return nil
		}
		if !matchesAny(relSlash, opts.IncludeGlobs) {
			return nil
		}

		var size int64
		if info, infoErr := d.Info(); infoErr == nil {
			size = info.Size()
		}
		entries = append(entries, Entry{Path: fullPath, RelPath: relSlash, Size: size})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (w *Walker) loadIgnoreRules(ignore *git.IgnoreMatcher, relDir string) {
	if err := ignore.LoadDir(relDir); err != nil {
		w.logger.Debug("ignore rules partially loaded", "dir", relDir, "error", err)
	}
}

func excluded(path string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func matchesAny(relPath string, globs []string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, relPath); ok {
			return true
		}
	}
	return false
}
