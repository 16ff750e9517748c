package server

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/codeshell/internal/tool/search"
)

// FormatSearchResults renders search results grouped by file.
func FormatSearchResults(results *search.Results) string {
	if results == nil || len(results.Matches) == 0 {
		files := 0
		if results != nil {
			files = results.FilesSearched
		}
		return fmt.Sprintf("No matches found (%d files searched).", files)
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matches in %d files (%d files searched):\n\n",
		results.TotalMatches, len(results.Matches), results.FilesSearched))

	for i, file := range results.Matches {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("── %s ──\n", file.FilePath))
		for _, match := range file.Matches {
			builder.WriteString(fmt.Sprintf("  %d:%d: %s\n", match.LineNumber, match.MatchIndex+1, match.LineContent))
		}
	}

	return builder.String()
}

// FormatOutput renders polled command output. Stderr lines are prefixed so
// both streams can share one text block.
func FormatOutput(runID string, chunk Chunk) string {
	var builder strings.Builder
	if chunk.Dropped > 0 {
		builder.WriteString(fmt.Sprintf("[%d earlier lines dropped]\n", chunk.Dropped))
	}
	for _, ev := range chunk.Events {
		switch {
		case ev.IsFinal:
			builder.WriteString(fmt.Sprintf("== %s ==\n", ev.Output))
		case ev.IsError:
			builder.WriteString("[stderr] " + ev.Output + "\n")
		default:
			builder.WriteString(ev.Output + "\n")
		}
	}

	status := "running"
	if chunk.Done {
		status = "finished"
	}
	builder.WriteString(fmt.Sprintf("\nrun %s: %s, next offset %d", runID, status, chunk.Next))
	return builder.String()
}
