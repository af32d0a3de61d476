package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/replify/kbengine/internal/search"
)

// NewSearchCmd creates the search command for one-off queries.
func NewSearchCmd() *cobra.Command {
	var (
		tenantID    string
		limit       int
		vertical    string
		categories  []string
		keywordOnly bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a single hybrid search against a tenant's knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" {
				return fmt.Errorf("--tenant is required")
			}

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

			query := strings.Join(args, " ")
			resp := stack.engine.Search(cmd.Context(), tenantID, query, search.Options{
				Limit:               limit,
				Vertical:            vertical,
				PreferredCategories: categories,
				DisableHybrid:       keywordOnly,
			})

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			out := cmd.OutOrStdout()
			if len(resp.Results) == 0 {
				fmt.Fprintln(out, "No results.")
				return nil
			}
			for i, r := range resp.Results {
				fmt.Fprintf(out, "%2d. [%.3f] %s (%s)\n", i+1, r.FinalScore, r.Document.Title, r.Document.SourceType)
				if r.Document.Category != "" {
					fmt.Fprintf(out, "    category: %s\n", r.Document.Category)
				}
			}
			fmt.Fprintf(out, "\nsufficiency: %.3f  sufficient: %v  degraded: %v  (%s)\n",
				resp.Metrics.SufficiencyScore,
				search.IsContextSufficient(resp),
				resp.Metrics.Degraded,
				resp.Metrics.ProcessingTime)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&vertical, "vertical", "", "Business vertical (dental, restaurant)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Preferred categories to boost")
	cmd.Flags().BoolVar(&keywordOnly, "keyword-only", false, "Skip the semantic path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")

	return cmd
}
