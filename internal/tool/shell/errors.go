package shell

import (
	"errors"
	"fmt"
)

// ErrProcessNotFound is returned by Terminate for a pid that is not tracked.
var ErrProcessNotFound = errors.New("process not found")

// KillError is returned when the OS refuses to kill a tracked process. The
// process is no longer tracked when this is returned.
type KillError struct {
	PID   int
	Cause error
}

func (e *KillError) Error() string {
	return fmt.Sprintf("failed to kill process %d: %v", e.PID, e.Cause)
}

func (e *KillError) Unwrap() error {
	return e.Cause
}

// EnvFileReadError is returned when reading an env file fails.
type EnvFileReadError struct {
	Path  string
	Cause error
}

func (e *EnvFileReadError) Error() string {
	return fmt.Sprintf("failed to read env file %s: %v", e.Path, e.Cause)
}

func (e *EnvFileReadError) Unwrap() error {
	return e.Cause
}

func (e *EnvFileReadError) IOError() bool {
	return true
}

// EnvFileParseError is returned when an env file has an invalid format.
type EnvFileParseError struct {
	Path    string
	Line    int
	Content string
}

func (e *EnvFileParseError) Error() string {
	return fmt.Sprintf("invalid line %d in env file %s: %s", e.Line, e.Path, e.Content)
}

func (e *EnvFileParseError) InvalidInput() bool {
	return true
}

// CommandRequiredError is returned when a command is missing.
type CommandRequiredError struct{}

func (e *CommandRequiredError) Error() string {
	return "command cannot be empty"
}

func (e *CommandRequiredError) InvalidInput() bool {
	return true
}

// PresetParseError is returned when the presets file is not valid YAML or
// describes an invalid command.
type PresetParseError struct {
	Path  string
	Cause error
}

func (e *PresetParseError) Error() string {
	return fmt.Sprintf("invalid command presets in %s: %v", e.Path, e.Cause)
}

func (e *PresetParseError) Unwrap() error {
	return e.Cause
}

func (e *PresetParseError) InvalidInput() bool {
	return true
}
