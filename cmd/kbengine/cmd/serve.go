package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/replify/kbengine/internal/mcp"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the retrieval engine as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// stdout carries the MCP protocol, so logs must not mirror there.
			logger, cleanup, err := setupLogging(cfg, false)
			if err != nil {
				return err
			}
			defer cleanup()

			stack, err := buildEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := mcp.NewServer(stack.engine, logger)
			return server.Serve(ctx, cfg.Server.Transport)
		},
	}
}
