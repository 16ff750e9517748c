// Package server exposes search and command execution as MCP tools.
package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Setup creates the MCP server with all tool registrations.
func Setup(
	searchHandler *SearchHandler,
	executeHandler *ExecuteHandler,
	outputHandler *OutputHandler,
	terminateHandler *TerminateHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "codeshell",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server searches a project tree and runs build or test commands in it.

- Use codeshell_search for text or regex search. It honours .gitignore and .ignore unless includeIgnored is set.
- Use codeshell_execute to start a command. It returns immediately with a run id and pid.
- Poll codeshell_output with the run id, passing the returned next offset each time, until the run is finished.
- Use codeshell_terminate to kill a running command and its children.`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "codeshell_search",
		Description: `Search file contents across the project.

Modes:
  - default: case-insensitive literal match
  - caseSensitive: exact case literal match
  - wholeWord: literal bounded by word characters
  - useRegex: Go regular expression (case sensitivity via (?i))

Filtering:
  - excludePatterns: path substrings to skip (e.g. "vendor")
  - includeGlobs: only files matching these globs (e.g. "**/*.go")`,
	}, searchHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "codeshell_execute",
		Description: "Start a shell command in the project. Output is buffered per run; read it with codeshell_output.",
	}, executeHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "codeshell_output",
		Description: "Read buffered output of a run from an offset. Reports whether the run has finished and the next offset.",
	}, outputHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "codeshell_terminate",
		Description: "Forcefully kill a running command and its process group.",
	}, terminateHandler.Handle)

	return mcpServer
}
