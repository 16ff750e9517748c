package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Cyclone1070/codeshell/internal/server"
	"github.com/Cyclone1070/codeshell/internal/tool/service/path"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	var maxRuns, maxEvents int

	cmd := &cobra.Command{
		Use:   "mcp [root]",
		Short: "Run an MCP server on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing
codeshell_search, codeshell_execute, codeshell_output and codeshell_terminate.
Searches and commands default to root (the working directory if omitted).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root string
			if len(args) == 1 {
				root = args[0]
			}
			rootDir, err := path.CanonicaliseRoot(root)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			outputs := server.NewOutputBuffer(maxRuns, maxEvents)
			engine := a.newEngine()
			supervisor := a.newSupervisor(outputs)
			a.watchConfig(ctx, engine.SetConfig, supervisor.SetConfig)

			mcpServer := server.Setup(
				&server.SearchHandler{Engine: engine, Root: rootDir, Logger: a.logger},
				&server.ExecuteHandler{Runner: supervisor, Outputs: outputs, Root: rootDir, Logger: a.logger},
				&server.OutputHandler{Outputs: outputs, Logger: a.logger},
				&server.TerminateHandler{Terminator: supervisor, Logger: a.logger},
			)

			a.logger.Info("MCP server starting on stdio", "root", rootDir)
			err = mcpServer.Run(ctx, &mcp.StdioTransport{})

			if termErr := supervisor.TerminateAll(); termErr != nil {
				a.logger.Warn("failed to terminate running commands", "error", termErr)
			}
			supervisor.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVar(&maxRuns, "max-runs", server.DefaultMaxRuns, "Finished runs kept for codeshell_output")
	cmd.Flags().IntVar(&maxEvents, "max-events", server.DefaultMaxEvents, "Output events kept per run for codeshell_output")
	return cmd
}
