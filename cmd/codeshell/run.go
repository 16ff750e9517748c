package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Cyclone1070/codeshell/internal/tool/shell"
	"github.com/Cyclone1070/codeshell/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type runFlags struct {
	project  string
	preset   string
	cwd      string
	env      map[string]string
	envFiles []string
	plain    bool
	keepOpen bool
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [command...]",
		Short: "Run a command in the project and stream its output",
		Long: `Run a shell command (or a preset from .codeshell/commands.yaml) with the
project as its working directory. Output is shown live; press ctrl+c to
terminate the command and its children.

The exit status follows the command: 0 on success, 1 otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCommand(cmd, f, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.project, "project", "p", "", "Project directory (default: working directory)")
	flags.StringVar(&f.preset, "preset", "", "Run the named preset instead of a command line")
	flags.StringVar(&f.cwd, "cwd", "", "Working directory, may contain ${workspaceFolder}")
	flags.StringToStringVarP(&f.env, "env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
	flags.StringSliceVar(&f.envFiles, "env-file", nil, "Dotenv file loaded before --env (repeatable)")
	flags.BoolVar(&f.plain, "plain", false, "Print plain lines even when stdout is a terminal")
	flags.BoolVar(&f.keepOpen, "keep-open", false, "Keep the live view open after the command exits")
	return cmd
}

func (a *app) runCommand(cmd *cobra.Command, f *runFlags, args []string) error {
	projectPath, err := resolveProject(f.project)
	if err != nil {
		return err
	}

	cfg, err := a.commandConfig(f, args, projectPath)
	if err != nil {
		return err
	}

	sink := shell.NewChannelSink(a.cfg.Exec.EventBuffer)
	supervisor := a.newSupervisor(sink)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := supervisor.Execute(ctx, cfg, projectPath)
	if err != nil {
		sink.Close()
		return err
	}
	go func() {
		supervisor.Wait()
		sink.Drain()
	}()

	terminate := func() error {
		if run.PID == 0 {
			return nil
		}
		err := supervisor.Terminate(run.PID)
		if errors.Is(err, shell.ErrProcessNotFound) {
			return nil
		}
		return err
	}

	var failed bool
	if !f.plain && isTerminal(cmd.OutOrStdout()) {
		// The view owns ctrl+c while it runs.
		stop()
		failed, err = a.runView(cmd, cfg, run, sink.Events(), terminate, !f.keepOpen)
	} else {
		failed, err = a.streamPlain(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), sink.Events(), terminate)
	}
	if err != nil {
		return err
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// commandConfig builds the command to run from a preset or the arguments.
func (a *app) commandConfig(f *runFlags, args []string, projectPath string) (shell.CommandConfig, error) {
	var cfg shell.CommandConfig
	if f.preset != "" {
		if len(args) > 0 {
			return cfg, errors.New("--preset cannot be combined with a command line")
		}
		presets, err := a.presetLoader(projectPath)
		if err != nil {
			return cfg, err
		}
		p, ok := presets.Find(f.preset)
		if !ok {
			return cfg, fmt.Errorf("unknown preset %q (available: %s)", f.preset, strings.Join(presets.Names(), ", "))
		}
		cfg = p
	} else {
		if len(args) == 0 {
			return cfg, errors.New("a command or --preset is required")
		}
		cfg = shell.CommandConfig{Name: args[0], Command: strings.Join(args, " ")}
	}

	if f.cwd != "" {
		cfg.Cwd = f.cwd
	}
	cfg.EnvFiles = append(cfg.EnvFiles, f.envFiles...)
	if len(f.env) > 0 {
		merged := make(map[string]string, len(cfg.Env)+len(f.env))
		for k, v := range cfg.Env {
			merged[k] = v
		}
		for k, v := range f.env {
			merged[k] = v
		}
		cfg.Env = merged
	}
	return cfg, nil
}

func (a *app) runView(cmd *cobra.Command, cfg shell.CommandConfig, run *shell.Run, events <-chan shell.CommandOutput, terminate func() error, exitOnFinish bool) (bool, error) {
	title := cfg.Command
	if cfg.Name != "" && cfg.Name != cfg.Command {
		title = fmt.Sprintf("%s: %s", cfg.Name, cfg.Command)
	}

	view := ui.NewUI(cmd.Context(), events, ui.Options{
		Title:        title,
		PID:          run.PID,
		Terminate:    terminate,
		ExitOnFinish: exitOnFinish,
	}, nil)
	result, err := view.Run()
	if err != nil {
		return false, err
	}
	if result.Stopped {
		// Quit before the final event: do not leave the command behind.
		if err := terminate(); err != nil {
			a.logger.Warn("failed to terminate command", "pid", run.PID, "error", err)
		}
		return true, nil
	}
	if result.Final != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), result.Final)
	}
	return result.Failed, nil
}

// streamPlain copies events to stdout and stderr until the final event. The
// first cancellation of ctx terminates the command.
func (a *app) streamPlain(ctx context.Context, stdout, stderr io.Writer, events <-chan shell.CommandOutput, terminate func() error) (bool, error) {
	done := ctx.Done()
	failed := false
	for {
		select {
		case <-done:
			done = nil
			if err := terminate(); err != nil {
				a.logger.Warn("failed to terminate command", "error", err)
			}
		case ev, ok := <-events:
			if !ok {
				return failed, nil
			}
			switch {
			case ev.IsFinal:
				fmt.Fprintln(stderr, ev.Output)
				failed = ev.IsError
			case ev.IsError:
				fmt.Fprintln(stderr, ev.Output)
			default:
				fmt.Fprintln(stdout, ev.Output)
			}
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
