package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/OldStager01/alert-arbiter/api"
	"github.com/OldStager01/alert-arbiter/internal/collector"
	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/internal/metrics"
	"github.com/OldStager01/alert-arbiter/internal/orchestrator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the arbitration loop with the status API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	db, history, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	orch := orchestrator.New(cfg, history)
	if err := orch.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}
	defer orch.Stop()

	if err := attachSinks(orch, cfg, nil, false); err != nil {
		return err
	}

	if cfg.Prometheus.Enabled {
		metricsSrv := metrics.StartServer(cfg.Prometheus.Port)
		defer shutdownWithin(cfg.App.ShutdownTimeout, metricsSrv.Shutdown)
	}

	coll, source, err := newCollector(cfg, table)
	if err != nil {
		return err
	}
	if err := orch.StartPipeline(newEngine(cfg, table), coll, source); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	if cfg.API.Enabled {
		server := api.NewServer(cfg.API, &cfg.WebSocket, db, orch)
		go func() {
			logger.Infof("API server listening on port %d", cfg.API.Port)
			if err := server.Start(); err != nil {
				errChan <- err
			}
		}()
		defer shutdownWithin(cfg.App.ShutdownTimeout, server.Shutdown)
	}

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-orch.Done():
		_, frames, _, perr := orch.PipelineStatus()
		if perr != nil && !errors.Is(perr, collector.ErrExhausted) {
			return fmt.Errorf("pipeline stopped after %d frames: %w", frames, perr)
		}
		if !cfg.API.Enabled {
			logger.Infof("Frame source finished after %d frames", frames)
			return nil
		}
		logger.Infof("Frame source finished after %d frames, still serving", frames)
		select {
		case err := <-errChan:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	return nil
}

// shutdownWithin runs a graceful shutdown bounded by timeout.
func shutdownWithin(timeout time.Duration, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warnf("Shutdown error: %v", err)
	}
}
