package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Cyclone1070/codeshell/internal/tool/search"
	"github.com/Cyclone1070/codeshell/internal/tool/shell"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type searcher interface {
	Search(ctx context.Context, projectPath, term string, opts search.Options) (*search.Results, error)
}

type commandRunner interface {
	Execute(ctx context.Context, cmd shell.CommandConfig, projectPath string) (*shell.Run, error)
}

type processTerminator interface {
	Terminate(pid int) error
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// SearchArgs defines the input parameters for the codeshell_search tool.
type SearchArgs struct {
	Query           string   `json:"query" jsonschema:"Text or regular expression to search for"`
	ProjectPath     string   `json:"projectPath,omitempty" jsonschema:"Directory to search (defaults to the server root)"`
	CaseSensitive   bool     `json:"caseSensitive,omitempty" jsonschema:"Match case exactly (ignored for regex queries)"`
	WholeWord       bool     `json:"wholeWord,omitempty" jsonschema:"Only match whole words"`
	UseRegex        bool     `json:"useRegex,omitempty" jsonschema:"Treat query as a regular expression"`
	ExcludePatterns []string `json:"excludePatterns,omitempty" jsonschema:"Skip files whose path contains any of these substrings"`
	IncludeIgnored  bool     `json:"includeIgnored,omitempty" jsonschema:"Also search files excluded by .gitignore and .ignore"`
	IncludeGlobs    []string `json:"includeGlobs,omitempty" jsonschema:"Only search files matching one of these globs (e.g. **/*.go)"`
}

// SearchHandler serves codeshell_search.
type SearchHandler struct {
	Engine searcher
	Root   string
	Logger *slog.Logger
}

// Handle processes a codeshell_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" {
		h.Logger.Warn("codeshell_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	projectPath := args.ProjectPath
	if projectPath == "" {
		projectPath = h.Root
	}

	results, err := h.Engine.Search(ctx, projectPath, args.Query, search.Options{
		CaseSensitive:   args.CaseSensitive,
		WholeWord:       args.WholeWord,
		UseRegex:        args.UseRegex,
		ExcludePatterns: args.ExcludePatterns,
		IncludeIgnored:  args.IncludeIgnored,
		IncludeGlobs:    args.IncludeGlobs,
	})
	if err != nil {
		h.Logger.Error("codeshell_search failed", "query", args.Query, "error", err)
		return errorResult("Search error: %v", err), nil, nil
	}

	h.Logger.Info("codeshell_search",
		"query", args.Query,
		"project", projectPath,
		"files", results.FilesSearched,
		"matches", results.TotalMatches,
		"elapsed", time.Since(start),
	)

	return textResult(FormatSearchResults(results)), nil, nil
}

// ExecuteArgs defines the input parameters for the codeshell_execute tool.
type ExecuteArgs struct {
	Command     string            `json:"command" jsonschema:"Shell command line to run"`
	Name        string            `json:"name,omitempty" jsonschema:"Display name for the run"`
	ProjectPath string            `json:"projectPath,omitempty" jsonschema:"Project directory (defaults to the server root)"`
	Cwd         string            `json:"cwd,omitempty" jsonschema:"Working directory; may contain ${workspaceFolder}"`
	Env         map[string]string `json:"env,omitempty" jsonschema:"Extra environment variables"`
	EnvFiles    []string          `json:"envFiles,omitempty" jsonschema:"Dotenv files loaded before env"`
}

// ExecuteHandler serves codeshell_execute.
type ExecuteHandler struct {
	Runner  commandRunner
	Outputs *OutputBuffer
	Root    string
	Logger  *slog.Logger
}

// Handle processes a codeshell_execute request.
func (h *ExecuteHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ExecuteArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Command) == "" {
		h.Logger.Warn("codeshell_execute called with empty command")
		return errorResult("Error: command parameter is required"), nil, nil
	}

	projectPath := args.ProjectPath
	if projectPath == "" {
		projectPath = h.Root
	}

	run, err := h.Runner.Execute(ctx, shell.CommandConfig{
		Name:     args.Name,
		Command:  args.Command,
		Cwd:      args.Cwd,
		Env:      args.Env,
		EnvFiles: args.EnvFiles,
	}, projectPath)
	if err != nil {
		h.Logger.Error("codeshell_execute failed", "command", args.Command, "error", err)
		return errorResult("Execute error: %v", err), nil, nil
	}

	if run.PID == 0 {
		chunk, _ := h.Outputs.Read(run.RunID, 0)
		return errorResult("%s", strings.TrimSpace(FormatOutput(run.RunID, chunk))), nil, nil
	}

	h.Logger.Info("codeshell_execute", "command", args.Command, "run_id", run.RunID, "pid", run.PID)
	return textResult(fmt.Sprintf(
		"Started run %s (pid %d). Poll codeshell_output with runId %q to read its output.",
		run.RunID, run.PID, run.RunID)), nil, nil
}

// OutputArgs defines the input parameters for the codeshell_output tool.
type OutputArgs struct {
	RunID  string `json:"runId" jsonschema:"Run id returned by codeshell_execute"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of events already read (from the previous next offset)"`
}

// OutputHandler serves codeshell_output.
type OutputHandler struct {
	Outputs *OutputBuffer
	Logger  *slog.Logger
}

// Handle processes a codeshell_output request.
func (h *OutputHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args OutputArgs) (*mcp.CallToolResult, any, error) {
	if args.RunID == "" {
		return errorResult("Error: runId parameter is required"), nil, nil
	}

	chunk, ok := h.Outputs.Read(args.RunID, args.Offset)
	if !ok {
		return errorResult("Error: unknown run %q", args.RunID), nil, nil
	}
	return textResult(FormatOutput(args.RunID, chunk)), nil, nil
}

// TerminateArgs defines the input parameters for the codeshell_terminate tool.
type TerminateArgs struct {
	PID int `json:"pid" jsonschema:"Process id returned by codeshell_execute"`
}

// TerminateHandler serves codeshell_terminate.
type TerminateHandler struct {
	Terminator processTerminator
	Logger     *slog.Logger
}

// Handle processes a codeshell_terminate request.
func (h *TerminateHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args TerminateArgs) (*mcp.CallToolResult, any, error) {
	if args.PID <= 0 {
		return errorResult("Error: pid must be positive"), nil, nil
	}

	if err := h.Terminator.Terminate(args.PID); err != nil {
		if errors.Is(err, shell.ErrProcessNotFound) {
			return errorResult("Error: no running process with pid %d", args.PID), nil, nil
		}
		h.Logger.Error("codeshell_terminate failed", "pid", args.PID, "error", err)
		return errorResult("Terminate error: %v", err), nil, nil
	}

	h.Logger.Info("codeshell_terminate", "pid", args.PID)
	return textResult(fmt.Sprintf("Terminated process %d.", args.PID)), nil, nil
}
