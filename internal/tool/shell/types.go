package shell

// WorkspacePlaceholder is replaced with the project path in CommandConfig.Cwd
// and EnvFiles.
const WorkspacePlaceholder = "${workspaceFolder}"

// CommandConfig describes one command to run.
type CommandConfig struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	Command string `json:"command" yaml:"command" mapstructure:"command" validate:"required"`
	// Args is informational; Command is executed through the shell as-is.
	Args []string          `json:"args,omitempty" yaml:"args" mapstructure:"args"`
	Cwd  string            `json:"cwd,omitempty" yaml:"cwd" mapstructure:"cwd"`
	Env  map[string]string `json:"env,omitempty" yaml:"env" mapstructure:"env"`
	// EnvFiles are dotenv files applied before Env. Relative paths are
	// resolved against the project path.
	EnvFiles []string `json:"env_files,omitempty" yaml:"env_files" mapstructure:"env_files"`
}

// CommandOutput is one event in the output stream of a run.
type CommandOutput struct {
	Output  string `json:"output"`
	IsError bool   `json:"is_error"` // stderr line, warning or failure
	IsFinal bool   `json:"is_final"` // last event of the run
	RunID   string `json:"run_id"`
	PID     int    `json:"pid,omitempty"`
}

// Run identifies a started execution.
type Run struct {
	RunID string `json:"run_id"`
	PID   int    `json:"pid"` // 0 when the process failed to spawn
}
