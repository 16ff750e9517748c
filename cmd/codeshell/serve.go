package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Cyclone1070/codeshell/internal/bridge"
	"github.com/Cyclone1070/codeshell/internal/tool/shell"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve commands as JSON lines on stdin/stdout",
		Long: `Read one JSON request per line from stdin and write responses and
command-output events as JSON lines to stdout.

  request:  {"id":1,"cmd":"search_project","args":{"projectPath":"...","searchTerm":"..."}}
  response: {"id":1,"result":{...}} or {"id":1,"error":"..."}
  event:    {"event":"command-output","payload":{"output":"...","is_error":false,"is_final":false,"run_id":"...","pid":123}}

Commands: search_project, execute_command, terminate_command, list_processes,
list_presets, run_preset. Running commands are killed when stdin closes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sink := shell.NewChannelSink(a.cfg.Exec.EventBuffer)
			defer sink.Close()

			engine := a.newEngine()
			supervisor := a.newSupervisor(sink)
			a.watchConfig(ctx, engine.SetConfig, supervisor.SetConfig)

			b := bridge.New(engine, supervisor, a.presetLoader, a.logger)
			a.logger.Info("bridge serving on stdio", "commands", b.Commands())

			err := b.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), sink.Events())

			if termErr := supervisor.TerminateAll(); termErr != nil {
				a.logger.Warn("failed to terminate running commands", "error", termErr)
			}
			supervisor.Wait()
			return err
		},
	}
}
