package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/OldStager01/alert-arbiter/internal/collector"
	"github.com/OldStager01/alert-arbiter/internal/orchestrator"
	"github.com/OldStager01/alert-arbiter/pkg/config"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// driveSummary tallies one finite run.
type driveSummary struct {
	Source      string
	Frames      uint64
	Changes     int
	Clears      int
	Disengaged  int
	Rejected    int
	SourceFails int
}

func (s driveSummary) String() string {
	return fmt.Sprintf("%s: %d frames, %d alert changes, %d clears, %d disengagements, %d rejected engagements, %d source errors",
		s.Source, s.Frames, s.Changes, s.Clears, s.Disengaged, s.Rejected, s.SourceFails)
}

// drive runs the configured source to exhaustion, rendering alert changes
// to out. It returns early, without error, when ctx is cancelled.
func drive(ctx context.Context, cfg *config.Config, out io.Writer, compact bool) (driveSummary, error) {
	table, err := loadTable(cfg)
	if err != nil {
		return driveSummary{}, err
	}

	db, history, err := openHistory(ctx, cfg)
	if err != nil {
		return driveSummary{}, err
	}
	if db != nil {
		defer db.Close()
	}

	orch := orchestrator.New(cfg, history)
	if err := orch.Start(); err != nil {
		return driveSummary{}, fmt.Errorf("failed to start orchestrator: %w", err)
	}
	stopped := false
	defer func() {
		if !stopped {
			orch.Stop()
		}
	}()

	if err := attachSinks(orch, cfg, out, compact); err != nil {
		return driveSummary{}, err
	}

	coll, source, err := newCollector(cfg, table)
	if err != nil {
		return driveSummary{}, err
	}

	summary := driveSummary{Source: source}
	tally := orch.SubscribeEvents(
		models.EventTypeAlertChanged,
		models.EventTypeAlertCleared,
		models.EventTypeDisengaged,
		models.EventTypeEngagementRejected,
		models.EventTypeSourceError,
	)
	tallied := make(chan struct{})
	go func() {
		defer close(tallied)
		for event := range tally {
			switch event.Type {
			case models.EventTypeAlertChanged:
				summary.Changes++
			case models.EventTypeAlertCleared:
				summary.Clears++
			case models.EventTypeDisengaged:
				summary.Disengaged++
			case models.EventTypeEngagementRejected:
				summary.Rejected++
			case models.EventTypeSourceError:
				summary.SourceFails++
			}
		}
	}()

	if err := orch.StartPipeline(newEngine(cfg, table), coll, source); err != nil {
		return driveSummary{}, err
	}

	select {
	case <-orch.Done():
	case <-ctx.Done():
	}

	_, frames, _, perr := orch.PipelineStatus()
	stopped = true
	orch.Stop()
	<-tallied

	summary.Frames = frames
	if perr != nil && !errors.Is(perr, collector.ErrExhausted) && !errors.Is(perr, orchestrator.ErrPipelineStopped) {
		return summary, fmt.Errorf("pipeline failed after %d frames: %w", frames, perr)
	}
	return summary, nil
}
