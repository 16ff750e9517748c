package path

import (
	"errors"
	"fmt"
)

// ErrNotADirectory is wrapped by ProjectRootError when the root is a file.
var ErrNotADirectory = errors.New("not a directory")

// ProjectRootError is returned when a project root is unusable.
type ProjectRootError struct {
	Root  string
	Cause error
}

func (e *ProjectRootError) Error() string {
	return fmt.Sprintf("invalid project root %s: %v", e.Root, e.Cause)
}
func (e *ProjectRootError) Unwrap() error      { return e.Cause }
func (e *ProjectRootError) InvalidInput() bool { return true }
