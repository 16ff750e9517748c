package executor

import (
	"errors"
	"fmt"
)

// ErrEmptyCommand is returned when Start is called without an argv.
var ErrEmptyCommand = errors.New("empty command")

// CommandError is returned when a process cannot be started or controlled.
type CommandError struct {
	Cmd   string
	Cause error
	Stage string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("failed to %s command %s: %v", e.Stage, e.Cmd, e.Cause)
}
func (e *CommandError) Unwrap() error { return e.Cause }
func (e *CommandError) IOError() bool { return true }
