package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Cyclone1070/codeshell/internal/config"
	"github.com/Cyclone1070/codeshell/internal/tool/fsutil"
	"github.com/Cyclone1070/codeshell/internal/tool/search"
	"github.com/Cyclone1070/codeshell/internal/tool/service/executor"
	"github.com/Cyclone1070/codeshell/internal/tool/service/walk"
	"github.com/Cyclone1070/codeshell/internal/tool/shell"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

type mockSearcher struct {
	projectPath string
	term        string
	opts        search.Options
	results     *search.Results
	err         error
}

func (m *mockSearcher) Search(ctx context.Context, projectPath, term string, opts search.Options) (*search.Results, error) {
	m.projectPath, m.term, m.opts = projectPath, term, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockRunner struct {
	cmd         shell.CommandConfig
	projectPath string
	run         *shell.Run
	err         error
}

func (m *mockRunner) Execute(ctx context.Context, cmd shell.CommandConfig, projectPath string) (*shell.Run, error) {
	m.cmd, m.projectPath = cmd, projectPath
	return m.run, m.err
}

type mockTerminator struct {
	pids []int
	err  error
}

func (m *mockTerminator) Terminate(pid int) error {
	m.pids = append(m.pids, pid)
	return m.err
}

func TestSearchHandler(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		m := &mockSearcher{}
		h := &SearchHandler{Engine: m, Root: "/root", Logger: testLogger()}

		result, _, err := h.Handle(context.Background(), nil, SearchArgs{})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "query parameter is required")
		assert.Empty(t, m.term)
	})

	t.Run("defaults to root and maps options", func(t *testing.T) {
		m := &mockSearcher{results: &search.Results{
			Matches:       []search.FileMatch{{FilePath: "a.go", Matches: []search.Match{{LineNumber: 2, LineContent: "foo", MatchIndex: 0}}}},
			FilesSearched: 1,
			TotalMatches:  1,
		}}
		h := &SearchHandler{Engine: m, Root: "/proj", Logger: testLogger()}

		result, _, err := h.Handle(context.Background(), nil, SearchArgs{
			Query:           "foo",
			WholeWord:       true,
			ExcludePatterns: []string{"vendor"},
			IncludeGlobs:    []string{"*.go"},
		})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "── a.go ──")
		assert.Equal(t, "/proj", m.projectPath)
		assert.Equal(t, "foo", m.term)
		assert.Equal(t, search.Options{
			WholeWord:       true,
			ExcludePatterns: []string{"vendor"},
			IncludeGlobs:    []string{"*.go"},
		}, m.opts)
	})

	t.Run("explicit project and error", func(t *testing.T) {
		m := &mockSearcher{err: &search.InvalidPatternError{Pattern: "(", Cause: errors.New("missing closing )")}}
		h := &SearchHandler{Engine: m, Root: "/proj", Logger: testLogger()}

		result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "(", UseRegex: true, ProjectPath: "/other"})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Search error: invalid regex")
		assert.Equal(t, "/other", m.projectPath)
	})
}

func TestExecuteHandler(t *testing.T) {
	t.Run("empty command", func(t *testing.T) {
		m := &mockRunner{}
		h := &ExecuteHandler{Runner: m, Outputs: NewOutputBuffer(0, 0), Root: "/proj", Logger: testLogger()}

		result, _, err := h.Handle(context.Background(), nil, ExecuteArgs{Command: "  "})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "command parameter is required")
	})

	t.Run("started", func(t *testing.T) {
		m := &mockRunner{run: &shell.Run{RunID: "abc", PID: 12}}
		h := &ExecuteHandler{Runner: m, Outputs: NewOutputBuffer(0, 0), Root: "/proj", Logger: testLogger()}

		result, _, err := h.Handle(context.Background(), nil, ExecuteArgs{
			Command: "make",
			Name:    "build",
			Cwd:     "${workspaceFolder}/sub",
			Env:     map[string]string{"K": "V"},
		})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), `Started run abc (pid 12)`)
		assert.Equal(t, "/proj", m.projectPath)
		assert.Equal(t, shell.CommandConfig{
			Name:    "build",
			Command: "make",
			Cwd:     "${workspaceFolder}/sub",
			Env:     map[string]string{"K": "V"},
		}, m.cmd)
	})

	t.Run("spawn failure reports buffered event", func(t *testing.T) {
		outputs := NewOutputBuffer(0, 0)
		outputs.Emit(shell.CommandOutput{Output: "Failed to start command: no such file", IsError: true, IsFinal: true, RunID: "dead"})
		m := &mockRunner{run: &shell.Run{RunID: "dead"}}
		h := &ExecuteHandler{Runner: m, Outputs: outputs, Root: "/proj", Logger: testLogger()}

		result, _, err := h.Handle(context.Background(), nil, ExecuteArgs{Command: "nope"})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Failed to start command: no such file")
	})

	t.Run("execute error", func(t *testing.T) {
		m := &mockRunner{err: &shell.EnvFileReadError{Path: ".env", Cause: os.ErrNotExist}}
		h := &ExecuteHandler{Runner: m, Outputs: NewOutputBuffer(0, 0), Root: "/proj", Logger: testLogger()}

		result, _, err := h.Handle(context.Background(), nil, ExecuteArgs{Command: "make", EnvFiles: []string{".env"}})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Execute error:")
	})
}

func TestOutputHandler(t *testing.T) {
	outputs := NewOutputBuffer(0, 0)
	outputs.Emit(shell.CommandOutput{Output: "line", RunID: "r"})
	h := &OutputHandler{Outputs: outputs, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, OutputArgs{RunID: "r"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "line\n\nrun r: running, next offset 1", resultText(t, result))

	result, _, err = h.Handle(context.Background(), nil, OutputArgs{RunID: "missing"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), `unknown run "missing"`)

	result, _, err = h.Handle(context.Background(), nil, OutputArgs{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestTerminateHandler(t *testing.T) {
	tests := []struct {
		name      string
		pid       int
		err       error
		wantError bool
		wantText  string
	}{
		{"success", 42, nil, false, "Terminated process 42."},
		{"invalid pid", 0, nil, true, "pid must be positive"},
		{"not found", 7, shell.ErrProcessNotFound, true, "no running process with pid 7"},
		{"kill failure", 8, &shell.KillError{PID: 8, Cause: errors.New("denied")}, true, "Terminate error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockTerminator{err: tt.err}
			h := &TerminateHandler{Terminator: m, Logger: testLogger()}

			result, _, err := h.Handle(context.Background(), nil, TerminateArgs{PID: tt.pid})
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, result.IsError)
			assert.Contains(t, resultText(t, result), tt.wantText)
		})
	}
}

func connectClient(t *testing.T, s *mcp.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := s.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestSetup_RegistersTools(t *testing.T) {
	outputs := NewOutputBuffer(0, 0)
	s := Setup(
		&SearchHandler{Engine: &mockSearcher{}, Logger: testLogger()},
		&ExecuteHandler{Runner: &mockRunner{}, Outputs: outputs, Logger: testLogger()},
		&OutputHandler{Outputs: outputs, Logger: testLogger()},
		&TerminateHandler{Terminator: &mockTerminator{}, Logger: testLogger()},
	)
	session := connectClient(t, s)

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"codeshell_search", "codeshell_execute", "codeshell_output", "codeshell_terminate"}, names)
}

func TestServer_EndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc needle() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("skipped.go\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skipped.go"), []byte("needle\n"), 0o644))

	cfg := config.DefaultConfig()
	fs := fsutil.NewOSFileSystem()
	engine := search.NewEngine(fs, walk.NewWalker(fs, nil, nil), cfg, nil)
	outputs := NewOutputBuffer(0, 0)
	exec := executor.NewOSCommandExecutor()
	supervisor := shell.NewSupervisor(fs, exec, exec, outputs, cfg, nil)
	t.Cleanup(supervisor.Wait)

	s := Setup(
		&SearchHandler{Engine: engine, Root: root, Logger: testLogger()},
		&ExecuteHandler{Runner: supervisor, Outputs: outputs, Root: root, Logger: testLogger()},
		&OutputHandler{Outputs: outputs, Logger: testLogger()},
		&TerminateHandler{Terminator: supervisor, Logger: testLogger()},
	)
	session := connectClient(t, s)
	ctx := context.Background()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "codeshell_search",
		Arguments: map[string]any{"query": "needle"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	text := resultText(t, res)
	assert.Contains(t, text, "── main.go ──")
	assert.Contains(t, text, "3:6: func needle() {}")
	assert.NotContains(t, text, "skipped.go")

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "codeshell_execute",
		Arguments: map[string]any{"command": "echo hello; echo oops 1>&2"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	started := resultText(t, res)
	runID := started[strings.Index(started, "Started run ")+len("Started run ") : strings.Index(started, " (pid")]

	var output string
	require.Eventually(t, func() bool {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "codeshell_output",
			Arguments: map[string]any{"runId": runID},
		})
		if err != nil || res.IsError {
			return false
		}
		output = resultText(t, res)
		return strings.Contains(output, ": finished,")
	}, 5*time.Second, 20*time.Millisecond)

	assert.Contains(t, output, "hello\n")
	assert.Contains(t, output, "[stderr] oops\n")
	assert.Contains(t, output, "== Process exited with code 0 ==")
	assert.Contains(t, output, "next offset 3")
}
