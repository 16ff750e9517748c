package config

import (
	"fmt"
)

// Validate checks config values for correctness.
// Returns an error listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	// Search validation
	if c.Search.Workers < 0 {
		errs = append(errs, "search.workers must be >= 0")
	}
	if c.Search.MaxFileSize < 1 {
		errs = append(errs, "search.max_file_size must be >= 1")
	}

	// Exec validation
	if c.Exec.MaxLineLength < 1 {
		errs = append(errs, "exec.max_line_length must be >= 1")
	}
	if c.Exec.EventBuffer < 0 {
		errs = append(errs, "exec.event_buffer must be >= 0")
	}
	if c.Exec.ShellUnix == "" {
		errs = append(errs, "exec.shell_unix must not be empty")
	}
	if c.Exec.ShellWindows == "" {
		errs = append(errs, "exec.shell_windows must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
