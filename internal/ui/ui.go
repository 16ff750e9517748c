// Package ui renders a live terminal view of a running command.
package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/Cyclone1070/codeshell/internal/tool/shell"
	tea "github.com/charmbracelet/bubbletea"
)

// Options configures a run view.
type Options struct {
	Title string
	PID   int

	// Terminate is called once when the user presses ctrl+c while the
	// command is running.
	Terminate func() error

	// ExitOnFinish quits the view as soon as the final event arrives.
	ExitOnFinish bool

	MaxLines int

	// Input and Output override the terminal, mainly for tests.
	Input  io.Reader
	Output io.Writer
}

// Result describes how a run ended as seen by the view.
type Result struct {
	Final   string
	Failed  bool
	Lines   int
	Stopped bool // the view quit before the final event
}

// UI runs the Bubble Tea program for one command.
type UI struct {
	program *tea.Program
}

// NewUI creates a run view fed by events.
func NewUI(ctx context.Context, events <-chan shell.CommandOutput, opts Options, spinnerFactory SpinnerFactory) *UI {
	model := newRunModel(events, opts, spinnerFactory)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	return &UI{program: tea.NewProgram(model, programOpts...)}
}

// Run blocks until the view quits.
func (u *UI) Run() (Result, error) {
	final, err := u.program.Run()
	if err != nil {
		return Result{}, fmt.Errorf("run view: %w", err)
	}

	m, ok := final.(RunModel)
	if !ok {
		return Result{}, fmt.Errorf("run view: unexpected model %T", final)
	}
	s := m.State()
	return Result{
		Final:   s.Final,
		Failed:  s.FinalIsError,
		Lines:   len(s.Lines),
		Stopped: s.Running,
	}, nil
}
