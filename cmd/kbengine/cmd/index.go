package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/replify/kbengine/internal/corpus"
)

// NewIndexCmd creates the index command group.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage tenant corpora and search indexes",
	}
	cmd.AddCommand(newIndexLoadCmd())
	cmd.AddCommand(newIndexRefreshCmd())
	cmd.AddCommand(newIndexClearCmd())
	return cmd
}

func newIndexLoadCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "load <documents.json>",
		Short: "Load documents from a JSON file into the corpus database",
		Long: `Load documents from a JSON array into the corpus database.
Each entry needs id, tenant_id, source_type (article|faq|policy|service),
and content; title, category, source_id, and updated_at are optional.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read documents file: %w", err)
			}

			var docs []*corpus.Document
			if err := json.Unmarshal(data, &docs); err != nil {
				return fmt.Errorf("parse documents file: %w", err)
			}
			if len(docs) == 0 {
				return fmt.Errorf("no documents in %s", args[0])
			}

			provider, err := corpus.NewSQLiteProvider(corpusPath)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			if replace {
				tenants := make(map[string]struct{})
				for _, d := range docs {
					tenants[d.TenantID] = struct{}{}
				}
				for tenant := range tenants {
					if err := provider.DeleteTenant(cmd.Context(), tenant); err != nil {
						return err
					}
				}
			}

			if err := provider.SaveDocuments(cmd.Context(), docs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d documents into %s\n", len(docs), corpusPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Delete each tenant's existing documents first")
	return cmd
}

func newIndexRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <tenant-id>",
		Short: "Rebuild a tenant's search index from the corpus",
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

			if err := stack.engine.RefreshIndex(cmd.Context(), args[0]); err != nil {
				return err
			}

			if stats, ok := stack.engine.IndexStats(args[0]); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt index for %s: %d documents\n", args[0], stats.Documents)
			}
			return nil
		},
	}
}

func newIndexClearCmd() *cobra.Command {
	var deleteDocs bool

	cmd := &cobra.Command{
		Use:   "clear <tenant-id>",
		Short: "Drop a tenant's cached index (and optionally its documents)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !deleteDocs {
				// Index cache is in-process; without document deletion there
				// is nothing persistent to clear.
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do: indexes are rebuilt per process. Use --delete-documents to remove the corpus.")
				return nil
			}

			provider, err := corpus.NewSQLiteProvider(corpusPath)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			if err := provider.DeleteTenant(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted documents for tenant %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteDocs, "delete-documents", false, "Also delete the tenant's documents from the corpus database")
	return cmd
}
