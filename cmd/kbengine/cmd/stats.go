package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <tenant-id>",
		Short: "Show index stats for a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, cleanup, err := setupLogging(cfg, debugMode)
			if err != nil {
				return err
			}
			defer cleanup()

			stack, err := buildEngine(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.close()

			// Build the index so the numbers reflect the current corpus.
			if err := stack.engine.RefreshIndex(cmd.Context(), args[0]); err != nil {
				return err
			}

			stats, ok := stack.engine.IndexStats(args[0])
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "No index for tenant %s\n", args[0])
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tenant:     %s\n", stats.TenantID)
			fmt.Fprintf(out, "documents:  %d\n", stats.Documents)
			fmt.Fprintf(out, "built at:   %s\n", stats.BuiltAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
