package fsutil

import (
	"fmt"
)

// FileTooLargeError is returned when a file exceeds the configured read limit.
type FileTooLargeError struct {
	Path string
	Size int64
	Max  int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %s is %d bytes, exceeds limit of %d", e.Path, e.Size, e.Max)
}

func (e *FileTooLargeError) TooLarge() bool {
	return true
}
