package shell

import (
	"os"

	"github.com/Cyclone1070/codeshell/internal/tool/service/executor"
)

// fileSystem defines the filesystem operations the supervisor needs.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// processStarter starts child processes.
type processStarter interface {
	Start(argv []string, opts executor.StartOptions) (*executor.Process, error)
}

// processKiller forcefully terminates a process and its descendants.
type processKiller interface {
	Kill(pid int) error
}
