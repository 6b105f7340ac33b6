package main

import (
	"context"
	"fmt"
	"io"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/internal/collector"
	"github.com/OldStager01/alert-arbiter/internal/events"
	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/internal/orchestrator"
	"github.com/OldStager01/alert-arbiter/internal/render"
	"github.com/OldStager01/alert-arbiter/internal/simulator"
	"github.com/OldStager01/alert-arbiter/internal/sink"
	"github.com/OldStager01/alert-arbiter/pkg/config"
	"github.com/OldStager01/alert-arbiter/pkg/database"
	"github.com/OldStager01/alert-arbiter/pkg/database/queries"
)

// loadTable builds the alert table, applying overrides from
// arbiter.alert_table when set.
func loadTable(cfg *config.Config) (*alerts.Table, error) {
	overrides, err := alerts.LoadOverrides(cfg.Arbiter.AlertTable)
	if err != nil {
		return nil, err
	}
	table, err := alerts.DefaultCatalog(overrides)
	if err != nil {
		return nil, err
	}
	if cfg.Arbiter.AlertTable != "" {
		logger.WithField("path", cfg.Arbiter.AlertTable).Infof("Applied %d alert table overrides", len(overrides))
	}
	return table, nil
}

func newEngine(cfg *config.Config, table *alerts.Table) *arbiter.Engine {
	return arbiter.New(table, arbiter.Config{
		TickPeriod:    cfg.Arbiter.TickPeriod,
		MaxCandidates: cfg.Arbiter.MaxCandidates,
	})
}

// openHistory connects and migrates the history store. Both results are
// nil when the database is disabled.
func openHistory(ctx context.Context, cfg *config.Config) (*database.DB, events.HistoryWriter, error) {
	if !cfg.Database.Enabled {
		return nil, nil, nil
	}

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, cfg.Database.MigrationTimeout)
	defer cancel()
	if err := database.NewMigrator(db).Run(migrateCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	logger.WithField("driver", cfg.Database.Driver).Info("Alert history enabled")
	return db, queries.NewAlertHistoryRepository(db), nil
}

// newCollector opens the configured frame source. The returned name labels
// logs and metrics.
func newCollector(cfg *config.Config, table *alerts.Table) (collector.Collector, string, error) {
	decoder := collector.NewDecoder(table.Registry())

	switch cfg.Collector.Type {
	case "replay":
		coll, err := collector.NewReplayCollector(collector.ReplayCollectorConfig{
			Path:    cfg.Collector.Path,
			Decoder: decoder,
		})
		if err != nil {
			return nil, "", err
		}
		return coll, "replay:" + cfg.Collector.Path, nil

	case "http":
		base := collector.NewHTTPCollector(collector.HTTPCollectorConfig{
			Endpoint: cfg.Collector.Endpoint,
			Timeout:  cfg.Collector.Timeout,
			Decoder:  decoder,
		})
		coll := collector.NewResilientCollector(collector.ResilientCollectorConfig{
			Collector:     base,
			MaxFailures:   cfg.Collector.CircuitBreaker.MaxFailures,
			Timeout:       cfg.Collector.CircuitBreaker.Timeout,
			RetryAttempts: cfg.Collector.RetryAttempts,
			RetryDelay:    cfg.Collector.RetryDelay,
		})
		return coll, "http:" + cfg.Collector.Endpoint, nil

	case "simulator":
		vehicle := simulator.NewVehicleSim(simulator.ParseScenario(cfg.Simulator.Scenario), vehicleConfig(cfg))
		return simulator.NewCollector(vehicle, cfg.Simulator.Frames), "simulator:" + vehicle.Scenario(), nil

	default:
		return nil, "", fmt.Errorf("unknown collector type %q", cfg.Collector.Type)
	}
}

func vehicleConfig(cfg *config.Config) simulator.VehicleSimConfig {
	return simulator.VehicleSimConfig{
		Brand:       cfg.Simulator.Brand,
		Metric:      cfg.Simulator.Metric,
		PcmCruise:   cfg.Simulator.PcmCruise,
		SoftDisable: cfg.Simulator.SoftDisable,
	}
}

// attachSinks wires the Redis mirror when enabled and, when out is set, a
// terminal renderer.
func attachSinks(orch *orchestrator.Orchestrator, cfg *config.Config, out io.Writer, compact bool) error {
	if cfg.Redis.Enabled {
		rs, err := newRedisSink(cfg)
		if err != nil {
			return err
		}
		orch.AddSink(rs, cfg.Redis.CircuitBreaker)
	}

	if out != nil {
		orch.AddSink(render.NewTerminalSink(out, 0, compact), config.CircuitBreakerConfig{})
	}
	return nil
}

func newRedisSink(cfg *config.Config) (*sink.RedisSink, error) {
	rs, err := sink.NewRedisSink(sink.RedisConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		Channel:    cfg.Redis.Channel,
		CurrentKey: cfg.Redis.CurrentKey,
		Timeout:    cfg.Redis.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rs, nil
}
