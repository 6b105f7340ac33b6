package handlers

import (
	"context"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/pkg/database/queries"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// ArbiterService is the view of the running control loop the API needs.
type ArbiterService interface {
	CurrentSelection() (arbiter.Selection, error)
	RequestEngagement(ctx context.Context) error
	PipelineStatus() (source string, frames uint64, running bool, err error)
	Table() *alerts.Table
	SubscribeAllEvents() <-chan *models.Event
}

// HistoryStore reads persisted alert changes.
type HistoryStore interface {
	Recent(ctx context.Context, filter queries.HistoryFilter) ([]models.AlertRecord, error)
	CountByAlertType(ctx context.Context, since time.Time) ([]models.AlertCount, error)
}

// HealthChecker is satisfied by *database.DB.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
