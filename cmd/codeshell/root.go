package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/codeshell/internal/config"
	"github.com/Cyclone1070/codeshell/internal/tool/fsutil"
	"github.com/Cyclone1070/codeshell/internal/tool/search"
	"github.com/Cyclone1070/codeshell/internal/tool/service/executor"
	"github.com/Cyclone1070/codeshell/internal/tool/service/walk"
	"github.com/Cyclone1070/codeshell/internal/tool/shell"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

// app holds the state shared by all subcommands.
type app struct {
	logLevel   string
	configPath string

	cfg    *config.Config
	loader *config.Loader
	logger *slog.Logger
	fs     *fsutil.OSFileSystem
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "codeshell",
		Short: "Search a project tree and run supervised commands in it",
		Long: `codeshell is the engine behind an editor shell: filter-aware text and
regex search across a project, and build/run commands whose output is
streamed live.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: ~/.config/codeshell/config.json)")

	rootCmd.AddCommand(
		newSearchCmd(a),
		newRunCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
	)
	return rootCmd
}

// init sets up logging and loads the configuration.
func (a *app) init(stderr io.Writer) error {
	a.stderr = stderr
	a.logger = setupLogger(a.logLevel, stderr)
	a.loader = config.NewLoader()
	a.fs = fsutil.NewOSFileSystem()

	if a.configPath == "" {
		a.configPath = a.loader.DefaultPath()
	}

	if a.configPath == "" {
		a.cfg = config.DefaultConfig()
		return nil
	}
	cfg, err := a.loader.LoadFile(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", a.configPath, err)
	}
	a.cfg = cfg
	return nil
}

// setupLogger creates an slog.Logger writing text to w. Stdout is never used
// because the bridge and MCP modes speak their protocol on it.
func setupLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func (a *app) newEngine() *search.Engine {
	walker := walk.NewWalker(a.fs, osfs.New("/"), a.logger)
	return search.NewEngine(a.fs, walker, a.cfg, a.logger)
}

func (a *app) newSupervisor(sink shell.EventSink) *shell.Supervisor {
	exec := executor.NewOSCommandExecutor()
	return shell.NewSupervisor(a.fs, exec, exec, sink, a.cfg, a.logger)
}

// watchConfig reloads the config file in the background and passes every
// valid version to apply. It is a no-op when the config directory is missing.
func (a *app) watchConfig(ctx context.Context, apply ...func(*config.Config)) {
	if a.configPath == "" {
		return
	}
	w, err := config.NewWatcher(a.configPath, a.loader, a.cfg, a.logger, func(cfg *config.Config) {
		for _, fn := range apply {
			fn(cfg)
		}
	})
	if err != nil {
		a.logger.Debug("config hot reload disabled", "path", a.configPath, "error", err)
		return
	}
	go func() {
		defer w.Close()
		w.Run(ctx)
	}()
}

// resolveProject returns an absolute project path, defaulting to the working
// directory.
func resolveProject(path string) (string, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// presetLoader reads presets with the app filesystem.
func (a *app) presetLoader(projectPath string) (shell.Presets, error) {
	return shell.LoadPresets(a.fs, projectPath)
}
