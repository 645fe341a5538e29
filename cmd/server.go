package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/davidschrooten/esmapper/internal/api"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the esmapper HTTP server",
	Long: `Start the HTTP server that serves compiled schemas and creates indexes on demand.
Unless bootstrap is disabled, the indexes of all registered models are created at startup.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().String("host", "0.0.0.0", "Host to bind the server to")
	serverCmd.Flags().Int("port", 8080, "Port to bind the server to")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Flags win over file and environment
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}

	indexerService, closeFn, err := newService()
	if err != nil {
		return fmt.Errorf("failed to initialize indexer: %w", err)
	}
	defer closeQuietly(cmd.Context(), closeFn)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Bootstrap.Enabled {
		if _, err := indexerService.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to bootstrap indexes: %w", err)
		}
	}

	apiServer, err := api.NewServer(indexerService, cfg, logger)
	if err != nil {
		return err
	}

	// Setup HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr, "backend", cfg.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down server")
	cancel()

	// Shutdown server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited")
	return nil
}
