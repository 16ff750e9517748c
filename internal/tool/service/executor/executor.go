package executor

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"github.com/Cyclone1070/codeshell/internal/config"
)

// StartOptions configures a child process.
type StartOptions struct {
	Dir string   // empty inherits the current working directory
	Env []string // nil inherits the current environment
}

// ExitStatus describes how a child process ended.
type ExitStatus struct {
	Code   int    // -1 when terminated by a signal
	Signal string // empty unless terminated by a signal
}

// Success reports whether the process exited normally with code 0.
func (s ExitStatus) Success() bool {
	return s.Signal == "" && s.Code == 0
}

// Process is a started child process and its output pipes.
type Process struct {
	cmd    *exec.Cmd
	Stdout io.ReadCloser
	Stderr io.ReadCloser
}

// PID returns the OS process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the process exits and reports its status. It does not wait
// for the output pipes: a descendant that inherited them can keep them open
// after the process itself has exited. Wait may run concurrently with reads.
//
// A non-zero exit or a signal is reported through ExitStatus, not as an error.
// The error is non-nil only when the status could not be obtained.
func (p *Process) Wait() (ExitStatus, error) {
	err := p.cmd.Wait()
	if err == nil {
		return ExitStatus{Code: 0}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return ExitStatus{Code: -1}, err
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signal: ws.Signal().String()}, nil
	}
	return ExitStatus{Code: exitErr.ExitCode()}, nil
}

// Close closes the read ends of both output pipes. A blocked read returns
// os.ErrClosed.
func (p *Process) Close() error {
	return errors.Join(p.Stdout.Close(), p.Stderr.Close())
}

// OSCommandExecutor starts real system processes using os/exec.
type OSCommandExecutor struct{}

// NewOSCommandExecutor creates a new OSCommandExecutor.
func NewOSCommandExecutor() *OSCommandExecutor {
	return &OSCommandExecutor{}
}

// Start launches argv with both output streams piped. Stdin is not connected.
// On unix the child leads a new process group so that Kill reaches anything it
// spawns.
func (f *OSCommandExecutor) Start(argv []string, opts StartOptions) (*Process, error) {
	if len(argv) == 0 {
		return nil, &CommandError{Cmd: "", Cause: ErrEmptyCommand, Stage: "start"}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.Stdin = nil
	cmd.SysProcAttr = sysProcAttr()

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, &CommandError{Cmd: argv[0], Cause: err, Stage: "start"}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, &CommandError{Cmd: argv[0], Cause: err, Stage: "start"}
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	// The child holds its own copies of the write ends.
	closeAll(stdoutW, stderrW)
	if err != nil {
		closeAll(stdoutR, stderrR)
		return nil, &CommandError{Cmd: argv[0], Cause: err, Stage: "start"}
	}

	return &Process{cmd: cmd, Stdout: stdoutR, Stderr: stderrR}, nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// Kill forcefully terminates the process pid and its descendants.
func (f *OSCommandExecutor) Kill(pid int) error {
	return killTree(pid)
}

// ShellArgv wraps a raw command string for the platform shell:
// "<shell> -c <command>" on unix and "<shell> /C <command>" on windows.
func ShellArgv(cfg config.ExecConfig, command string) []string {
	return shellArgv(runtime.GOOS, cfg, command)
}

func shellArgv(goos string, cfg config.ExecConfig, command string) []string {
	if goos == "windows" {
		return []string{cfg.ShellWindows, "/C", command}
	}
	return []string{cfg.ShellUnix, "-c", command}
}
