package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Search SearchConfig `json:"search"`
	Exec   ExecConfig   `json:"exec"`
}

type SearchConfig struct {
	// Workers bounds the number of files scanned concurrently. 0 means one per CPU.
	Workers int `json:"workers"` // Default: 0

	// Files larger than this are skipped without being read.
	MaxFileSize int64 `json:"max_file_size"` // Default: 20 * 1024 * 1024 (20MB)
}

type ExecConfig struct {
	// Longer output lines are cut and suffixed with a truncation marker.
	MaxLineLength int `json:"max_line_length"` // Default: 10000

	// Capacity of the channel behind ChannelSink.
	EventBuffer int `json:"event_buffer"` // Default: 256

	// Shell used to run command strings.
	ShellUnix    string `json:"shell_unix"`    // Default: "sh"
	ShellWindows string `json:"shell_windows"` // Default: "cmd"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Workers:     0,
			MaxFileSize: 20 * 1024 * 1024,
		},
		Exec: ExecConfig{
			MaxLineLength: 10000,
			EventBuffer:   256,
			ShellUnix:     "sh",
			ShellWindows:  "cmd",
		},
	}
}
