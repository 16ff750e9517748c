package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Cyclone1070/codeshell/internal/tool/search"
	"github.com/Cyclone1070/codeshell/internal/tool/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchCall struct {
	projectPath string
	term        string
	opts        search.Options
}

type mockSearcher struct {
	mu      sync.Mutex
	calls   []searchCall
	results *search.Results
	err     error
}

func (m *mockSearcher) Search(ctx context.Context, projectPath, term string, opts search.Options) (*search.Results, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, searchCall{projectPath: projectPath, term: term, opts: opts})
	if m.err != nil {
		return nil, m.err
	}
	if m.results != nil {
		return m.results, nil
	}
	return &search.Results{Matches: []search.FileMatch{}}, nil
}

type mockProcesses struct {
	mu         sync.Mutex
	executed   []shell.CommandConfig
	projects   []string
	terminated []int
	running    []int
	execErr    error
	termErr    error
}

func (m *mockProcesses) Execute(ctx context.Context, cmd shell.CommandConfig, projectPath string) (*shell.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.execErr != nil {
		return nil, m.execErr
	}
	m.executed = append(m.executed, cmd)
	m.projects = append(m.projects, projectPath)
	return &shell.Run{RunID: "run-1", PID: 4242}, nil
}

func (m *mockProcesses) Terminate(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminated = append(m.terminated, pid)
	return m.termErr
}

func (m *mockProcesses) Running() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func noPresets(string) (shell.Presets, error) {
	return shell.Presets{}, nil
}

func newTestBridge(s *mockSearcher, p *mockProcesses, presets presetLoader) *Bridge {
	if presets == nil {
		presets = noPresets
	}
	return New(s, p, presets, nil)
}

func TestBridge_Commands(t *testing.T) {
	b := newTestBridge(&mockSearcher{}, &mockProcesses{}, nil)

	assert.Equal(t, []string{
		CmdExecuteCommand,
		CmdListPresets,
		CmdListProcesses,
		CmdRunPreset,
		CmdSearchProject,
		CmdTerminateCommand,
	}, b.Commands())
}

func TestBridge_SearchProject(t *testing.T) {
	s := &mockSearcher{results: &search.Results{FilesSearched: 3, TotalMatches: 1}}
	b := newTestBridge(s, &mockProcesses{}, nil)

	result, err := b.Invoke(context.Background(), CmdSearchProject, map[string]any{
		"projectPath": "/work",
		"searchTerm":  "foo",
		"options": map[string]any{
			"case_sensitive":   true,
			"whole_word":       true,
			"exclude_patterns": []any{"vendor", "dist"},
			"include_globs":    []string{"**/*.go"},
		},
	})
	require.NoError(t, err)

	res, ok := result.(*search.Results)
	require.True(t, ok)
	assert.Equal(t, 3, res.FilesSearched)

	require.Len(t, s.calls, 1)
	assert.Equal(t, "/work", s.calls[0].projectPath)
	assert.Equal(t, "foo", s.calls[0].term)
	assert.Equal(t, search.Options{
		CaseSensitive:   true,
		WholeWord:       true,
		ExcludePatterns: []string{"vendor", "dist"},
		IncludeGlobs:    []string{"**/*.go"},
	}, s.calls[0].opts)
}

func TestBridge_SearchProjectOptionsOptional(t *testing.T) {
	s := &mockSearcher{}
	b := newTestBridge(s, &mockProcesses{}, nil)

	_, err := b.Invoke(context.Background(), CmdSearchProject, map[string]any{
		"projectPath": "/work",
		"searchTerm":  "foo",
	})
	require.NoError(t, err)
	require.Len(t, s.calls, 1)
	assert.Equal(t, search.Options{}, s.calls[0].opts)
}

func TestBridge_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		args    map[string]any
		wantMsg string
	}{
		{
			name:    "missing search term",
			cmd:     CmdSearchProject,
			args:    map[string]any{"projectPath": "/work"},
			wantMsg: "SearchTerm is required",
		},
		{
			name:    "wrong type",
			cmd:     CmdSearchProject,
			args:    map[string]any{"projectPath": 12, "searchTerm": "x"},
			wantMsg: "projectPath",
		},
		{
			name:    "empty command",
			cmd:     CmdExecuteCommand,
			args:    map[string]any{"config": map[string]any{"name": "build"}, "projectPath": "/work"},
			wantMsg: "Config.Command is required",
		},
		{
			name:    "non-positive pid",
			cmd:     CmdTerminateCommand,
			args:    map[string]any{"pid": 0},
			wantMsg: "PID must satisfy gt=0",
		},
		{
			name:    "missing project for presets",
			cmd:     CmdListPresets,
			args:    nil,
			wantMsg: "ProjectPath is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockSearcher{}
			p := &mockProcesses{}
			b := newTestBridge(s, p, nil)

			_, err := b.Invoke(context.Background(), tt.cmd, tt.args)
			require.Error(t, err)

			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.True(t, argErr.InvalidInput())
			assert.Equal(t, tt.cmd, argErr.Command)
			assert.Contains(t, err.Error(), tt.wantMsg)

			assert.Empty(t, s.calls)
			assert.Empty(t, p.executed)
			assert.Empty(t, p.terminated)
		})
	}
}

func TestBridge_UnknownCommand(t *testing.T) {
	b := newTestBridge(&mockSearcher{}, &mockProcesses{}, nil)

	_, err := b.Invoke(context.Background(), "greet", nil)

	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "greet", unknown.Name)
	assert.EqualError(t, err, "unknown command: greet")
}

func TestBridge_ExecuteCommand(t *testing.T) {
	p := &mockProcesses{}
	b := newTestBridge(&mockSearcher{}, p, nil)

	result, err := b.Invoke(context.Background(), CmdExecuteCommand, map[string]any{
		"projectPath": "/work",
		"config": map[string]any{
			"name":    "build",
			"command": "make all",
			"args":    []any{"-j4"},
			"cwd":     "${workspaceFolder}/sub",
			"env":     map[string]any{"A": "1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, &shell.Run{RunID: "run-1", PID: 4242}, result)

	require.Len(t, p.executed, 1)
	assert.Equal(t, shell.CommandConfig{
		Name:    "build",
		Command: "make all",
		Args:    []string{"-j4"},
		Cwd:     "${workspaceFolder}/sub",
		Env:     map[string]string{"A": "1"},
	}, p.executed[0])
	assert.Equal(t, []string{"/work"}, p.projects)
}

func TestBridge_TerminateCommand(t *testing.T) {
	t.Run("float pid from JSON", func(t *testing.T) {
		p := &mockProcesses{}
		b := newTestBridge(&mockSearcher{}, p, nil)

		result, err := b.Invoke(context.Background(), CmdTerminateCommand, map[string]any{"pid": float64(77)})
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, []int{77}, p.terminated)
	})

	t.Run("not found propagates", func(t *testing.T) {
		p := &mockProcesses{termErr: shell.ErrProcessNotFound}
		b := newTestBridge(&mockSearcher{}, p, nil)

		_, err := b.Invoke(context.Background(), CmdTerminateCommand, map[string]any{"pid": 5})
		assert.ErrorIs(t, err, shell.ErrProcessNotFound)
	})
}

func TestBridge_ListProcesses(t *testing.T) {
	p := &mockProcesses{running: []int{10, 20}}
	b := newTestBridge(&mockSearcher{}, p, nil)

	result, err := b.Invoke(context.Background(), CmdListProcesses, map[string]any{"ignored": true})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, result)
}

func TestBridge_Presets(t *testing.T) {
	presets := shell.Presets{
		{Name: "build", Command: "go build ./..."},
		{Name: "test", Command: "go test ./...", Cwd: "${workspaceFolder}"},
	}
	var requested []string
	loader := func(projectPath string) (shell.Presets, error) {
		requested = append(requested, projectPath)
		return presets, nil
	}

	t.Run("list", func(t *testing.T) {
		requested = nil
		b := newTestBridge(&mockSearcher{}, &mockProcesses{}, loader)

		result, err := b.Invoke(context.Background(), CmdListPresets, map[string]any{"projectPath": "/work"})
		require.NoError(t, err)
		assert.Equal(t, presets, result)
		assert.Equal(t, []string{"/work"}, requested)
	})

	t.Run("run", func(t *testing.T) {
		p := &mockProcesses{}
		b := newTestBridge(&mockSearcher{}, p, loader)

		_, err := b.Invoke(context.Background(), CmdRunPreset, map[string]any{"projectPath": "/work", "name": "test"})
		require.NoError(t, err)
		require.Len(t, p.executed, 1)
		assert.Equal(t, presets[1], p.executed[0])
	})

	t.Run("run unknown", func(t *testing.T) {
		p := &mockProcesses{}
		b := newTestBridge(&mockSearcher{}, p, loader)

		_, err := b.Invoke(context.Background(), CmdRunPreset, map[string]any{"projectPath": "/work", "name": "deploy"})
		var unknown *UnknownCommandError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "deploy", unknown.Name)
		assert.Empty(t, p.executed)
	})

	t.Run("loader error", func(t *testing.T) {
		boom := errors.New("boom")
		b := newTestBridge(&mockSearcher{}, &mockProcesses{}, func(string) (shell.Presets, error) {
			return nil, boom
		})

		_, err := b.Invoke(context.Background(), CmdRunPreset, map[string]any{"projectPath": "/work", "name": "x"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestNew_PanicsOnNilDependencies(t *testing.T) {
	assert.PanicsWithValue(t, "engine is required", func() {
		New(nil, &mockProcesses{}, noPresets, nil)
	})
	assert.PanicsWithValue(t, "procs is required", func() {
		New(&mockSearcher{}, nil, noPresets, nil)
	})
	assert.PanicsWithValue(t, "presets is required", func() {
		New(&mockSearcher{}, &mockProcesses{}, nil, nil)
	})
}
