package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OldStager01/alert-arbiter/internal/collector"
	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/internal/simulator"
)

var (
	simScenario string
	simFrames   uint64
	simServe    bool
	simPort     int
	simBanner   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive the arbiter from a simulated vehicle",
	Long: "Runs a scripted vehicle through the arbiter and prints the alerts it produces. " +
		"With --serve it instead exposes the vehicle as an HTTP telemetry bridge for a separate serve process.",
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", fmt.Sprintf("scenario to run %v", simulator.ScenarioNames()))
	simulateCmd.Flags().Uint64Var(&simFrames, "frames", 0, "stop after this many frames (0 uses simulator.frames)")
	simulateCmd.Flags().BoolVar(&simServe, "serve", false, "serve frames over HTTP instead of arbitrating them")
	simulateCmd.Flags().IntVar(&simPort, "port", 0, "HTTP bridge port (0 uses simulator.port)")
	simulateCmd.Flags().BoolVar(&simBanner, "banner", false, "draw full banners instead of one line per change")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if simScenario != "" {
		cfg.Simulator.Scenario = simScenario
	}
	if simFrames > 0 {
		cfg.Simulator.Frames = simFrames
	}
	if simPort > 0 {
		cfg.Simulator.Port = simPort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if simServe {
		table, err := loadTable(cfg)
		if err != nil {
			return err
		}
		sim := simulator.New(simulator.Config{
			Port:     cfg.Simulator.Port,
			Scenario: cfg.Simulator.Scenario,
			Vehicle:  vehicleConfig(cfg),
			Frames:   cfg.Simulator.Frames,
		}, collector.NewDecoder(table.Registry()))
		if err := sim.Start(); err != nil {
			return fmt.Errorf("failed to start simulator: %w", err)
		}

		<-ctx.Done()
		logger.Info("Shutting down simulator")
		return sim.Stop()
	}

	if cfg.Simulator.Frames == 0 {
		return fmt.Errorf("an in-process simulation needs --frames or simulator.frames")
	}
	cfg.Collector.Type = "simulator"
	cfg.API.Enabled = false
	cfg.Arbiter.Pace = fastPace

	summary, err := drive(ctx, cfg, cmd.OutOrStdout(), !simBanner)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), summary)
	return nil
}
