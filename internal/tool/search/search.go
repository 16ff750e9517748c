package search

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/Cyclone1070/codeshell/internal/config"
	"github.com/Cyclone1070/codeshell/internal/tool/fsutil"
	"github.com/Cyclone1070/codeshell/internal/tool/helper/content"
	"github.com/Cyclone1070/codeshell/internal/tool/service/walk"
	"golang.org/x/sync/errgroup"
)

// Engine searches project trees for a term.
//
// An Engine is safe for concurrent use; each Search call is independent.
type Engine struct {
	fs       fileSystem
	walker   treeWalker
	logger   *slog.Logger
	settings atomic.Pointer[config.SearchConfig]
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(fs fileSystem, walker treeWalker, cfg *config.Config, logger *slog.Logger) *Engine {
	if fs == nil {
		panic("fs is required")
	}
	if walker == nil {
		panic("walker is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{fs: fs, walker: walker, logger: logger}
	e.SetConfig(cfg)
	return e
}

// SetConfig replaces the search settings used by subsequent calls.
func (e *Engine) SetConfig(cfg *config.Config) {
	sc := cfg.Search
	e.settings.Store(&sc)
}

// Search compiles term, walks projectPath and scans every candidate file in
// parallel. It blocks until all files are processed.
//
// Pattern errors and an unreadable root fail the whole call before any file
// is read. Files that are binary, too large, unreadable or not UTF-8 are
// counted in FilesSearched but otherwise skipped.
func (e *Engine) Search(ctx context.Context, projectPath, term string, opts Options) (*Results, error) {
	matcher, err := Compile(term, opts)
	if err != nil {
		return nil, err
	}

	info, err := e.fs.Stat(projectPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileMissingError{Path: projectPath}
		}
		return nil, &StatError{Path: projectPath, Cause: err}
	}
	if !info.IsDir() {
		return nil, &NotDirectoryError{Path: projectPath}
	}

	entries, err := e.walker.Walk(ctx, projectPath, walk.Options{
		IncludeIgnored:  opts.IncludeIgnored,
		ExcludePatterns: opts.ExcludePatterns,
		IncludeGlobs:    opts.IncludeGlobs,
	})
	if err != nil {
		return nil, err
	}

	cfg := e.settings.Load()
	chunks := partition(entries, workerCount(cfg.Workers, len(entries)))
	partials := make([][]FileMatch, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			var local []FileMatch
			for _, entry := range chunk {
				if err := gctx.Err(); err != nil {
					return err
				}
				if fm := e.scanFile(entry, projectPath, matcher, cfg.MaxFileSize); fm != nil {
					local = append(local, *fm)
				}
			}
			partials[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := &Results{
		Matches:       []FileMatch{},
		FilesSearched: len(entries),
	}
	for _, local := range partials {
		for _, fm := range local {
			results.TotalMatches += len(fm.Matches)
		}
		results.Matches = append(results.Matches, local...)
	}

	e.logger.Debug("search complete",
		"root", projectPath,
		"files", results.FilesSearched,
		"file_matches", len(results.Matches),
		"matches", results.TotalMatches)
	return results, nil
}

// scanFile returns the matches of one file, or nil when the file is skipped
// or has no matches.
func (e *Engine) scanFile(entry walk.Entry, root string, matcher *Matcher, maxSize int64) *FileMatch {
	if fsutil.IsBinaryPath(entry.Path) {
		return nil
	}
	if entry.Size > maxSize {
		e.logger.Debug("skipping large file", "path", entry.Path, "size", entry.Size)
		return nil
	}

	data, err := e.fs.ReadFileLimit(entry.Path, maxSize)
	if err != nil {
		e.logger.Debug("skipping unreadable file", "path", entry.Path, "error", err)
		return nil
	}
	text, ok := content.DecodeText(data)
	if !ok {
		e.logger.Debug("skipping non-UTF-8 file", "path", entry.Path)
		return nil
	}

	var matches []Match
	for i, line := range content.SplitLines(text) {
		for _, idx := range matcher.FindAll(line) {
			matches = append(matches, Match{
				LineNumber:  i + 1,
				LineContent: line,
				MatchIndex:  idx,
			})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	return &FileMatch{
		FilePath: fsutil.Relativize(entry.Path, root),
		Matches:  matches,
	}
}

func workerCount(configured, files int) int {
	n := configured
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, files))
}

// partition splits entries into n contiguous chunks of near-equal size.
func partition(entries []walk.Entry, n int) [][]walk.Entry {
	if len(entries) == 0 {
		return nil
	}
	size := (len(entries) + n - 1) / n
	chunks := make([][]walk.Entry, 0, n)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		chunks = append(chunks, entries[start:end])
	}
	return chunks
}
