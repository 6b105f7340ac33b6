package events

import (
	"context"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// HistoryWriter persists alert history rows.
type HistoryWriter interface {
	Insert(ctx context.Context, rec *models.AlertRecord) error
}

// EventLogger logs bus events and persists the ones that change what the
// driver sees. A nil writer only logs.
type EventLogger struct {
	history   HistoryWriter
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	started   bool
}

func NewEventLogger(history HistoryWriter, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		history:   history,
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (l *EventLogger) Start() {
	l.started = true
	go l.run()
}

// Stop cancels the logger and waits for it to exit.
func (l *EventLogger) Stop() {
	l.cancel()
	if l.started {
		<-l.done
	}
}

// Drain waits for a closed subscription to be fully persisted, up to
// timeout, then stops the logger.
func (l *EventLogger) Drain(timeout time.Duration) {
	if l.started {
		select {
		case <-l.done:
		case <-time.After(timeout):
		}
	}
	l.Stop()
}

func (l *EventLogger) run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	if event.Type == models.EventTypeTick {
		return
	}

	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"frame":      event.Frame,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	if l.history == nil || !event.Type.Persisted() {
		return
	}

	rec, ok := event.Record()
	if !ok {
		return
	}
	l.persist(event, rec)
}

func (l *EventLogger) persist(event *models.Event, rec *models.AlertRecord) {
	// Other subscribers share rec.
	row := *rec
	if row.Timestamp.IsZero() {
		row.Timestamp = event.Timestamp
	}

	ctx, cancel := context.WithTimeout(l.ctx, 5*time.Second)
	defer cancel()

	if err := l.history.Insert(ctx, &row); err != nil {
		logger.Errorf("Failed to persist alert history: %v", err)
	}
}
