package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

const fastPace = 100 * time.Microsecond

var (
	replayBanner   bool
	replayRealtime bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay a recorded drive log and print every alert change",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayBanner, "banner", false, "draw full banners instead of one line per change")
	replayCmd.Flags().BoolVar(&replayRealtime, "realtime", false, "pace frames at the engine tick period")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cfg.Collector.Type = "replay"
	cfg.Collector.Path = args[0]
	cfg.API.Enabled = false
	cfg.Arbiter.Pace = fastPace
	if replayRealtime {
		cfg.Arbiter.Pace = 0
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	summary, err := drive(ctx, cfg, cmd.OutOrStdout(), !replayBanner)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), summary)
	return nil
}
