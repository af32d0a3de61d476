// Package cmd provides the CLI commands for kbengine.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/replify/kbengine/internal/cache"
	"github.com/replify/kbengine/internal/config"
	"github.com/replify/kbengine/internal/corpus"
	"github.com/replify/kbengine/internal/embed"
	"github.com/replify/kbengine/internal/index"
	"github.com/replify/kbengine/internal/logging"
	"github.com/replify/kbengine/internal/search"
	"github.com/replify/kbengine/pkg/version"
)

var (
	configPath string
	corpusPath string
	debugMode  bool
)

// NewRootCmd creates the root command for the kbengine CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kbengine",
		Short: "Hybrid knowledge retrieval engine for tenant knowledge bases",
		Long: `kbengine answers "what does the business know about X?" by combining
semantic search, BM25 keyword search, rank fusion, and metadata-aware
re-ranking over per-tenant knowledge bases.

Run 'kbengine serve' to expose the engine as an MCP server, or
'kbengine search' for one-off queries.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("kbengine version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to kbengine.yaml")
	cmd.PersistentFlags().StringVar(&corpusPath, "corpus", "kbengine.db", "Path to the corpus SQLite database")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// loadConfig resolves the configuration with the debug flag applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Server.LogLevel = "debug"
	}
	return cfg, nil
}

// engineStack holds everything a command needs to run the engine, plus a
// close function releasing resources in reverse order.
type engineStack struct {
	cfg     *config.Config
	engine  *search.Engine
	manager *index.Manager
	logger  *slog.Logger
	close   func()
}

// buildEngine wires the full stack: corpus provider, embedding generator,
// two-tier cache, index manager, and engine.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*engineStack, error) {
	provider, err := corpus.NewSQLiteProvider(corpusPath)
	if err != nil {
		return nil, err
	}

	var generator embed.Generator
	switch cfg.Embeddings.Provider {
	case "http":
		generator = embed.NewHTTPGenerator(cfg.Embeddings.Host, cfg.Embeddings.Model,
			cfg.Embeddings.Dimensions, cfg.Embeddings.Timeout)
	default:
		generator = embed.NewStaticGenerator(cfg.Embeddings.Model, cfg.Embeddings.Dimensions)
	}

	var shared cache.SharedCache = cache.NoopSharedCache{}
	if cfg.Cache.SharedPath != "" {
		badgerCache, err := cache.NewBadgerSharedCache(cfg.Cache.SharedPath, cfg.Cache.SharedTTL)
		if err != nil {
			// Shared tier is best-effort: log and continue local-only.
			logger.Warn("shared_cache_unavailable", slog.String("error", err.Error()))
		} else {
			shared = badgerCache
		}
	}

	cached, err := cache.NewEmbeddingCache(generator, cfg.Cache.LocalSize, shared, logger)
	if err != nil {
		_ = shared.Close()
		_ = provider.Close()
		return nil, err
	}

	manager := index.NewManager(
		search.NewSnapshotBuilder(provider, cached, cfg),
		cfg.Index.SweepInterval, cfg.Index.IdleTTL, logger)
	manager.Start()

	engine, err := search.NewEngine(cfg, manager, cached, search.WithLogger(logger))
	if err != nil {
		manager.Stop()
		_ = shared.Close()
		_ = provider.Close()
		return nil, err
	}

	return &engineStack{
		cfg:     cfg,
		engine:  engine,
		manager: manager,
		logger:  logger,
		close: func() {
			manager.Stop()
			_ = shared.Close()
			_ = provider.Close()
		},
	}, nil
}

// setupLogging initializes the process logger per the server config.
func setupLogging(cfg *config.Config, toStderr bool) (*slog.Logger, func(), error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Server.LogLevel
	logCfg.WriteToStderr = toStderr

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, cleanup, nil
}
