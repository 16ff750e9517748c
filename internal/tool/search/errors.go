package search

import "fmt"

// QueryRequiredError is returned when the search term is empty.
type QueryRequiredError struct{}

func (e *QueryRequiredError) Error() string { return "search term is required" }

func (e *QueryRequiredError) InvalidInput() bool { return true }

// InvalidPatternError is returned when a regex term does not compile.
type InvalidPatternError struct {
	Pattern string
	Cause   error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid regex %q: %v", e.Pattern, e.Cause)
}
func (e *InvalidPatternError) Unwrap() error      { return e.Cause }
func (e *InvalidPatternError) InvalidInput() bool { return true }

// FileMissingError implements the behavioral interface for missing files.
type FileMissingError struct {
	Path string
}

func (e *FileMissingError) Error() string {
	return "search path does not exist: " + e.Path
}

func (e *FileMissingError) FileMissing() bool {
	return true
}

// NotDirectoryError implements the behavioral interface for non-directory paths.
type NotDirectoryError struct {
	Path string
}

func (e *NotDirectoryError) Error() string {
	return "search path is not a directory: " + e.Path
}

func (e *NotDirectoryError) NotDirectory() bool {
	return true
}

// StatError is returned when stat fails.
type StatError struct {
	Path  string
	Cause error
}

func (e *StatError) Error() string {
	return fmt.Sprintf("failed to stat search path %s: %v", e.Path, e.Cause)
}
func (e *StatError) Unwrap() error { return e.Cause }
func (e *StatError) IOError() bool { return true }
