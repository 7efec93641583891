package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/patternd/internal/entitytypes"
	"github.com/fyrsmithlabs/patternd/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read-only HTTP API",
	Long: `Run the patternd HTTP daemon. The document itself is only ever
mutated by the operator-invoked merge command:

  GET  /health                          liveness
  GET  /metrics                         Prometheus metrics
  GET  /api/v1/report                   full coverage report
  GET  /api/v1/coverage/{entity_type}   per-type coverage detail
  GET  /api/v1/metadata                 document metadata block
  POST /api/v1/extract                  run the patterns over text

The coverage report is cached and recomputed when the pattern document
changes on disk (merges replace it atomically, which the watcher observes
as a rename).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	catalog, err := entitytypes.Load(cfg.Library.EntityTypesPath)
	if err != nil {
		return err
	}

	source, err := server.NewSource(cfg.Library.DocumentPath, catalog, logger)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(source, logger, &server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Server.Watch {
		watcher, err := server.NewWatcher(source, logger)
		if err != nil {
			return err
		}
		watcher.Start(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}
