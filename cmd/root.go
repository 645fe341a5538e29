// Package cmd implements the esmapper command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/davidschrooten/esmapper/config"
	"github.com/davidschrooten/esmapper/internal/elastic"
	"github.com/davidschrooten/esmapper/internal/indexer"
	"github.com/davidschrooten/esmapper/internal/logging"
	"github.com/davidschrooten/esmapper/internal/models"
	"github.com/davidschrooten/esmapper/internal/schema"
	"github.com/davidschrooten/esmapper/internal/search"
)

var (
	cfgFile  string
	logLevel string
	backend  string

	// cfg and logger are set before any subcommand runs
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "esmapper",
	Short: "Compile record models into search index settings and mappings",
	Long: `esmapper derives index settings and field mappings from the record
models compiled into it, prints them, and creates the indexes on an
Elasticsearch cluster or a local bleve store.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "index backend: elasticsearch or bleve")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if backend != "" {
		loaded.Backend = backend
		if err := loaded.Validate(); err != nil {
			return err
		}
	}

	l, err := logging.Setup(cmd.ErrOrStderr(), loaded.Log)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	return nil
}

// indexBackend is an index store that can both create indexes and hold documents
type indexBackend interface {
	indexer.AdminClient
	indexer.DocumentClient
}

// openBackend connects to the configured backend. The returned function
// releases it.
func openBackend() (indexBackend, func() error, error) {
	switch cfg.Backend {
	case config.BackendBleve:
		engine, err := search.NewEngine(cfg.Search, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize search engine: %w", err)
		}
		return engine, engine.Close, nil
	default:
		client, err := elastic.NewClient(cfg.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	}
}

// newService builds the registry and an indexer service on the configured backend
func newService() (*indexer.Service, func() error, error) {
	registry, err := models.Registry()
	if err != nil {
		return nil, nil, err
	}
	b, closeFn, err := openBackend()
	if err != nil {
		return nil, nil, err
	}
	return indexer.NewService(registry, b, b, cfg, logger), closeFn, nil
}

// findModel resolves a model by name or by index name
func findModel(registry *schema.Registry, arg string) (*schema.Model, error) {
	if m, ok := registry.Lookup(arg); ok {
		return m, nil
	}
	for _, m := range registry.Models() {
		if idx, _ := schema.IndexNameOf(m); idx == arg {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", indexer.ErrUnknownModel, arg)
}

func closeQuietly(ctx context.Context, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.ErrorContext(ctx, "failed to close backend", "error", err)
	}
}
