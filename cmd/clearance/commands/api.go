package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmillrr/sec-clearance-algo/internal/api"
	"github.com/nmillrr/sec-clearance-algo/internal/api/handlers"
	"github.com/nmillrr/sec-clearance-algo/pkg/config"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                 - Health check
  POST /api/backtests          - Trigger a backtest run
  GET  /api/backtests          - Runs triggered on this server
  GET  /api/backtests/{id}     - Live run status and result
  GET  /api/runs               - Persisted run summaries
  GET  /api/runs/{id}          - One persisted run with its dataset
  GET  /api/ws/runs/{id}       - WebSocket progress stream

Example:
  go run ./cmd/clearance api
  go run ./cmd/clearance api --port 8084`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Clearance API Server ===")

	d, err := initDeps(func(cfg *config.Config) {
		if apiPort != "" {
			cfg.Port = apiPort
		}
	})
	if err != nil {
		return err
	}
	defer d.close()

	log := d.logger

	// Runner executes triggered backtests in the background. The repo
	// may be nil when persistence is disabled.
	var repo handlers.RunStore
	if d.repo != nil {
		repo = d.repo
	}
	runner := handlers.NewRunner(d.service.Run, repo, log)

	backtestHandler := handlers.NewBacktestHandler(runner, repo, log)
	streamHandler := handlers.NewStreamHandler(runner, log)

	router := api.NewRouter(backtestHandler, streamHandler, log)
	server := api.New(d.cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", d.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
