package git

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Cyclone1070/codeshell/internal/tool/helper/content"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Names of the per-directory ignore files, in increasing precedence.
var ignoreFileNames = []string{".gitignore", ".ignore"}

// MetadataDir is the repository metadata directory holding info/exclude.
const MetadataDir = ".git"

// IgnoreReadError is returned when an ignore file exists but cannot be read.
type IgnoreReadError struct {
	Path  string
	Cause error
}

func (e *IgnoreReadError) Error() string {
	return fmt.Sprintf("failed to read ignore file at %s: %v", e.Path, e.Cause)
}
func (e *IgnoreReadError) Unwrap() error { return e.Cause }
func (e *IgnoreReadError) IOError() bool { return true }

// fileSystem defines the minimal filesystem interface needed to read ignore files.
type fileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// IgnoreMatcher evaluates gitignore rules for a single project tree.
//
// Rules are accumulated as the tree is walked: LoadDir adds the rules found in
// one directory, scoped to that directory. Rules added later take precedence,
// so a nested .gitignore overrides its parents and .ignore overrides
// .gitignore in the same directory.
type IgnoreMatcher struct {
	root   string
	fs     fileSystem
	logger *slog.Logger

	mu       sync.RWMutex
	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

// NewIgnoreMatcher creates a matcher rooted at root. It loads the user's global
// excludes file and the system excludes file from global (skipped when global
// is nil), then .git/info/exclude when present. Per-directory ignore files are
// not read until LoadDir is called.
func NewIgnoreMatcher(root string, fsys fileSystem, global billy.Filesystem, logger *slog.Logger) *IgnoreMatcher {
	if root == "" {
		panic("root is required")
	}
	if fsys == nil {
		panic("fsys is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := &IgnoreMatcher{
		root:   root,
		fs:     fsys,
		logger: logger,
	}

	if global != nil {
		if ps, err := gitignore.LoadSystemPatterns(global); err != nil {
			logger.Debug("skipping system excludes", "error", err)
		} else {
			m.patterns = append(m.patterns, ps...)
		}
		if ps, err := gitignore.LoadGlobalPatterns(global); err != nil {
			logger.Debug("skipping global excludes", "error", err)
		} else {
			m.patterns = append(m.patterns, ps...)
		}
	}

	excludePath := filepath.Join(root, MetadataDir, "info", "exclude")
	if err := m.loadFile(excludePath, nil); err != nil {
		logger.Debug("skipping repository excludes", "path", excludePath, "error", err)
	}

	m.matcher = gitignore.NewMatcher(m.patterns)
	return m
}

// LoadDir reads the ignore files of the directory at relDir (relative to the
// root, "" for the root itself) and adds their rules scoped to that directory.
// Missing ignore files are not an error. A file that exists but cannot be read
// is reported after the remaining files have been loaded.
func (m *IgnoreMatcher) LoadDir(relDir string) error {
	domain := splitPath(relDir)

	var errs []error
	loaded := false
	for _, name := range ignoreFileNames {
		path := filepath.Join(m.root, filepath.FromSlash(relDir), name)
		before := len(m.patterns)
		if err := m.loadFile(path, domain); err != nil {
			errs = append(errs, err)
			continue
		}
		if len(m.patterns) != before {
			loaded = true
		}
	}

	if loaded {
		m.mu.Lock()
		m.matcher = gitignore.NewMatcher(m.patterns)
		m.mu.Unlock()
	}
	return errors.Join(errs...)
}

// ShouldIgnore reports whether the root-relative path is excluded by the rules
// loaded so far. isDir must be true for directories so that directory-only
// rules ("build/") apply.
func (m *IgnoreMatcher) ShouldIgnore(relativePath string, isDir bool) bool {
	segments := splitPath(relativePath)
	if len(segments) == 0 {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.matcher.Match(segments, isDir)
}

func (m *IgnoreMatcher) loadFile(path string, domain []string) error {
	data, err := m.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &IgnoreReadError{Path: path, Cause: err}
	}

	var ps []gitignore.Pattern
	for _, line := range content.SplitLines(string(data)) {
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, domain))
	}

	m.mu.Lock()
	m.patterns = append(m.patterns, ps...)
	m.mu.Unlock()
	return nil
}

// splitPath splits a path into segments for gitignore matching.
// It normalizes path separators and filters out empty and "." segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}

	parts := strings.Split(filepath.ToSlash(path), "/")
	var segments []string
	for _, part := range parts {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}
