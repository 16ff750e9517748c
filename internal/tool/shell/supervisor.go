package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cyclone1070/codeshell/internal/config"
	"github.com/Cyclone1070/codeshell/internal/tool/service/executor"
	"github.com/google/uuid"
)

// Supervisor runs shell commands in the background, streams their output to
// an EventSink and tracks them until they exit or are terminated.
//
// Every run emits zero or more line events followed by exactly one event with
// IsFinal set. Lines of one stream arrive in the order the process wrote them;
// stdout and stderr lines may interleave arbitrarily.
type Supervisor struct {
	fs       fileSystem
	starter  processStarter
	killer   processKiller
	sink     EventSink
	registry *Registry
	logger   *slog.Logger
	settings atomic.Pointer[config.ExecConfig]

	wg sync.WaitGroup
}

// NewSupervisor creates a new Supervisor with injected dependencies.
func NewSupervisor(
	fs fileSystem,
	starter processStarter,
	killer processKiller,
	sink EventSink,
	cfg *config.Config,
	logger *slog.Logger,
) *Supervisor {
	if fs == nil {
		panic("fs is required")
	}
	if starter == nil {
		panic("starter is required")
	}
	if killer == nil {
		panic("killer is required")
	}
	if sink == nil {
		panic("sink is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Supervisor{
		fs:       fs,
		starter:  starter,
		killer:   killer,
		sink:     sink,
		registry: NewRegistry(),
		logger:   logger,
	}
	s.SetConfig(cfg)
	return s
}

// SetConfig replaces the execution settings used by subsequent runs.
func (s *Supervisor) SetConfig(cfg *config.Config) {
	ec := cfg.Exec
	s.settings.Store(&ec)
}

// Execute starts cmd for the project at projectPath and returns as soon as the
// process has been spawned. Output arrives on the sink.
//
// An empty command or an unusable env file is returned as an error and no
// event is emitted. A working directory that does not exist produces a warning
// event and the process starts in the current directory instead. A spawn
// failure is reported as a single final event and yields a Run with PID 0.
func (s *Supervisor) Execute(ctx context.Context, cmd CommandConfig, projectPath string) (*Run, error) {
	if strings.TrimSpace(cmd.Command) == "" {
		return nil, &CommandRequiredError{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env, err := s.buildEnv(cmd, projectPath)
	if err != nil {
		return nil, err
	}

	cfg := s.settings.Load()
	run := &Run{RunID: uuid.NewString()}
	emit := func(event CommandOutput) {
		event.RunID = run.RunID
		event.PID = run.PID
		s.sink.Emit(event)
	}

	dir := resolveCwd(cmd.Cwd, projectPath)
	if info, err := s.fs.Stat(dir); dir != "" && (err != nil || !info.IsDir()) {
		emit(CommandOutput{
			Output:  fmt.Sprintf("Warning: working directory does not exist: %s", dir),
			IsError: true,
		})
		dir = ""
	}

	argv := executor.ShellArgv(*cfg, cmd.Command)
	proc, err := s.starter.Start(argv, executor.StartOptions{Dir: dir, Env: env})
	if err != nil {
		s.logger.Debug("spawn failed", "run_id", run.RunID, "command", cmd.Command, "error", err)
		emit(CommandOutput{
			Output:  fmt.Sprintf("Failed to start command: %v", err),
			IsError: true,
			IsFinal: true,
		})
		return run, nil
	}

	run.PID = proc.PID()
	s.registry.Insert(run.PID, run.RunID)
	s.logger.Debug("process started", "run_id", run.RunID, "pid", run.PID, "command", cmd.Command, "dir", dir)

	s.wg.Add(1)
	go s.supervise(proc, *run, cfg.MaxLineLength, emit)

	return &Run{RunID: run.RunID, PID: run.PID}, nil
}

// outputGrace bounds how long output is still collected after the process has
// exited. A descendant that inherited the pipes (for example "cmd &") would
// otherwise hold back the final event until it exits too.
const outputGrace = 250 * time.Millisecond

// supervise owns proc: it drains both pipes, reaps the process, stops
// tracking it and emits the final event.
func (s *Supervisor) supervise(proc *executor.Process, run Run, maxLine int, emit func(CommandOutput)) {
	defer s.wg.Done()

	// Line events are dropped once the final event is being emitted, so a
	// reader that outlives the grace period can never emit after it.
	var mu sync.Mutex
	finished := false
	emitLine := func(event CommandOutput) {
		mu.Lock()
		defer mu.Unlock()
		if !finished {
			emit(event)
		}
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		s.drain(proc.Stdout, run, maxLine, false, emitLine)
	}()
	go func() {
		defer readers.Done()
		s.drain(proc.Stderr, run, maxLine, true, emitLine)
	}()
	drained := make(chan struct{})
	go func() {
		readers.Wait()
		close(drained)
	}()

	status, err := proc.Wait()
	s.registry.RemoveIf(run.PID, run.RunID)

	select {
	case <-drained:
	case <-time.After(outputGrace):
		s.logger.Debug("output held open after exit, closing pipes", "run_id", run.RunID, "pid", run.PID)
	}

	mu.Lock()
	finished = true
	mu.Unlock()
	_ = proc.Close()

	final := CommandOutput{IsFinal: true, IsError: true}
	switch {
	case err != nil:
		final.Output = fmt.Sprintf("Process failed: %v", err)
	case status.Signal != "":
		final.Output = fmt.Sprintf("Process terminated by signal %s", status.Signal)
	default:
		final.Output = fmt.Sprintf("Process exited with code %d", status.Code)
		final.IsError = !status.Success()
	}

	s.logger.Debug("process exited", "run_id", run.RunID, "pid", run.PID, "code", status.Code, "signal", status.Signal)
	emit(final)
}

func (s *Supervisor) drain(r io.Reader, run Run, maxLine int, isErr bool, emit func(CommandOutput)) {
	err := executor.ReadLines(r, maxLine, func(line string) {
		emit(CommandOutput{Output: line, IsError: isErr})
	})
	if err != nil && !errors.Is(err, os.ErrClosed) {
		s.logger.Debug("output stream failed", "run_id", run.RunID, "pid", run.PID, "stderr", isErr, "error", err)
	}
}

// Terminate forcefully kills the tracked process pid together with anything it
// spawned. The pid stops being tracked before the kill is attempted, so a
// failed kill is not retried and a second Terminate reports
// ErrProcessNotFound.
func (s *Supervisor) Terminate(pid int) error {
	if !s.registry.Remove(pid) {
		return ErrProcessNotFound
	}
	s.logger.Debug("terminating process", "pid", pid)
	if err := s.killer.Kill(pid); err != nil {
		return &KillError{PID: pid, Cause: err}
	}
	return nil
}

// TerminateAll terminates every tracked process.
func (s *Supervisor) TerminateAll() error {
	var errs []error
	for _, pid := range s.registry.PIDs() {
		if err := s.Terminate(pid); err != nil && !errors.Is(err, ErrProcessNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Running returns the pids of the tracked processes in ascending order.
func (s *Supervisor) Running() []int {
	return s.registry.PIDs()
}

// Wait blocks until every started run has emitted its final event.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) buildEnv(cmd CommandConfig, projectPath string) ([]string, error) {
	if len(cmd.EnvFiles) == 0 && len(cmd.Env) == 0 {
		return nil, nil
	}

	layers := make([]map[string]string, 0, len(cmd.EnvFiles)+1)
	for _, file := range cmd.EnvFiles {
		path := strings.ReplaceAll(file, WorkspacePlaceholder, projectPath)
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectPath, path)
		}
		vars, err := ParseEnvFile(s.fs, path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, vars)
	}
	layers = append(layers, cmd.Env)

	return mergeEnv(os.Environ(), layers...), nil
}

// resolveCwd substitutes the workspace placeholder. An empty cwd means the
// project path and a relative one is taken from the project path.
func resolveCwd(cwd, projectPath string) string {
	if cwd == "" {
		return projectPath
	}
	dir := strings.ReplaceAll(cwd, WorkspacePlaceholder, projectPath)
	if !filepath.IsAbs(dir) && projectPath != "" {
		dir = filepath.Join(projectPath, dir)
	}
	return dir
}
