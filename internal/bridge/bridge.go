// Package bridge exposes the search engine and process supervisor as named
// commands with loosely typed arguments, the shape a desktop UI layer invokes.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Cyclone1070/codeshell/internal/tool/search"
	"github.com/Cyclone1070/codeshell/internal/tool/shell"
	"github.com/go-playground/validator/v10"
)

// Command names.
const (
	CmdSearchProject    = "search_project"
	CmdExecuteCommand   = "execute_command"
	CmdTerminateCommand = "terminate_command"
	CmdListProcesses    = "list_processes"
	CmdListPresets      = "list_presets"
	CmdRunPreset        = "run_preset"
)

// EventCommandOutput is the name of the event carrying shell.CommandOutput.
const EventCommandOutput = "command-output"

// searcher runs project searches.
type searcher interface {
	Search(ctx context.Context, projectPath, term string, opts search.Options) (*search.Results, error)
}

// processController starts and stops supervised commands.
type processController interface {
	Execute(ctx context.Context, cmd shell.CommandConfig, projectPath string) (*shell.Run, error)
	Terminate(pid int) error
	Running() []int
}

// presetLoader reads the command presets of a project.
type presetLoader func(projectPath string) (shell.Presets, error)

// UnknownCommandError is returned by Invoke for an unregistered name.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %s", e.Name)
}
func (e *UnknownCommandError) NotFound() bool { return true }

type searchProjectArgs struct {
	ProjectPath string         `mapstructure:"projectPath" validate:"required"`
	SearchTerm  string         `mapstructure:"searchTerm" validate:"required"`
	Options     search.Options `mapstructure:"options"`
}

type executeCommandArgs struct {
	Config      shell.CommandConfig `mapstructure:"config"`
	ProjectPath string              `mapstructure:"projectPath"`
}

type terminateCommandArgs struct {
	PID int `mapstructure:"pid" validate:"gt=0"`
}

type projectArgs struct {
	ProjectPath string `mapstructure:"projectPath" validate:"required"`
}

type runPresetArgs struct {
	ProjectPath string `mapstructure:"projectPath" validate:"required"`
	Name        string `mapstructure:"name" validate:"required"`
}

// Bridge dispatches named commands.
type Bridge struct {
	commands map[string]Command
	logger   *slog.Logger
}

// New creates a Bridge with every command registered.
func New(engine searcher, procs processController, presets presetLoader, logger *slog.Logger) *Bridge {
	if engine == nil {
		panic("engine is required")
	}
	if procs == nil {
		panic("procs is required")
	}
	if presets == nil {
		panic("presets is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	b := &Bridge{commands: make(map[string]Command), logger: logger}

	b.Register(NewCommand(CmdSearchProject, validate,
		func(ctx context.Context, req searchProjectArgs) (*search.Results, error) {
			return engine.Search(ctx, req.ProjectPath, req.SearchTerm, req.Options)
		}))

	b.Register(NewCommand(CmdExecuteCommand, validate,
		func(ctx context.Context, req executeCommandArgs) (*shell.Run, error) {
			return procs.Execute(ctx, req.Config, req.ProjectPath)
		}))

	b.Register(NewCommand(CmdTerminateCommand, validate,
		func(ctx context.Context, req terminateCommandArgs) (any, error) {
			return nil, procs.Terminate(req.PID)
		}))

	b.Register(NewCommand(CmdListProcesses, validate,
		func(ctx context.Context, _ struct{}) ([]int, error) {
			return procs.Running(), nil
		}))

	b.Register(NewCommand(CmdListPresets, validate,
		func(ctx context.Context, req projectArgs) (shell.Presets, error) {
			return presets(req.ProjectPath)
		}))

	b.Register(NewCommand(CmdRunPreset, validate,
		func(ctx context.Context, req runPresetArgs) (*shell.Run, error) {
			all, err := presets(req.ProjectPath)
			if err != nil {
				return nil, err
			}
			cmd, ok := all.Find(req.Name)
			if !ok {
				return nil, &UnknownCommandError{Name: req.Name}
			}
			return procs.Execute(ctx, cmd, req.ProjectPath)
		}))

	return b
}

// Register adds or replaces a command.
func (b *Bridge) Register(cmd Command) {
	b.commands[cmd.Name()] = cmd
}

// Commands returns the registered command names, sorted.
func (b *Bridge) Commands() []string {
	names := make([]string, 0, len(b.commands))
	for name := range b.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command with args.
func (b *Bridge) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	cmd, ok := b.commands[name]
	if !ok {
		return nil, &UnknownCommandError{Name: name}
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := cmd.Invoke(ctx, args)
	if err != nil {
		b.logger.Debug("command failed", "cmd", name, "error", err)
		return nil, err
	}
	return result, nil
}
