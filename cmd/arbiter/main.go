package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/pkg/config"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "arbiter",
	Short:         "Driver-assistance alert arbitration engine",
	Long:          "Turns per-tick driving events into the single alert shown to the driver, with replay, simulation and a status API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override app.log_level")

	rootCmd.AddCommand(serveCmd, replayCmd, simulateCmd, eventsCmd, checkCmd, migrateCmd, tokenCmd)
}

// loadConfig reads and validates the configuration and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
