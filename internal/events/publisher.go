package events

import (
	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

// Record flattens a candidate for the bus and the history store.
func Record(kind models.EventType, frame uint64, c *arbiter.Candidate, latched bool, state arbiter.EngagementState) *models.AlertRecord {
	rec := &models.AlertRecord{
		Frame:   frame,
		Kind:    kind,
		Latched: latched,
		State:   string(state),
	}
	if c != nil {
		rec.AlertType = c.AlertType
		rec.EventName = c.EventName
		rec.Context = c.Type.String()
		rec.Priority = c.Alert.Priority.String()
		rec.Text1 = c.Alert.Text1
		rec.Text2 = c.Alert.Text2
		rec.Fallback = c.Fallback
	}
	return rec
}

// Tick carries the whole selection and is only useful to live viewers.
func (p *Publisher) Tick(sel arbiter.Selection) {
	event := models.NewEvent(models.EventTypeTick, sel.Frame, "Frame arbitrated").
		WithData(sel.Clone())
	p.publish(event)
}

func (p *Publisher) AlertChanged(sel arbiter.Selection) {
	msg := "Alert changed: " + sel.Alert.AlertType
	event := models.NewEvent(models.EventTypeAlertChanged, sel.Frame, msg).
		WithData(Record(models.EventTypeAlertChanged, sel.Frame, sel.Alert, sel.Latched, sel.State))

	if sel.Alert.Alert.Priority >= alerts.PriorityHigh {
		event.WithSeverity(models.SeverityCritical)
	}

	p.publish(event)
}

func (p *Publisher) AlertCleared(frame uint64, state arbiter.EngagementState) {
	event := models.NewEvent(models.EventTypeAlertCleared, frame, "Alert cleared").
		WithData(Record(models.EventTypeAlertCleared, frame, nil, false, state))
	p.publish(event)
}

func (p *Publisher) EngagementAccepted(frame uint64) {
	event := models.NewEvent(models.EventTypeEngagementAccepted, frame, "Engagement accepted").
		WithData(Record(models.EventTypeEngagementAccepted, frame, nil, false, arbiter.StateEnabled))
	p.publish(event)
}

func (p *Publisher) EngagementRejected(frame uint64, reason arbiter.Candidate, state arbiter.EngagementState) {
	msg := "Engagement rejected: " + reason.AlertType
	event := models.NewEvent(models.EventTypeEngagementRejected, frame, msg).
		WithSeverity(models.SeverityWarning).
		WithData(Record(models.EventTypeEngagementRejected, frame, &reason, false, state))
	p.publish(event)
}

func (p *Publisher) Disengaged(sel arbiter.Selection) {
	event := models.NewEvent(models.EventTypeDisengaged, sel.Frame, "Disengaged").
		WithSeverity(models.SeverityWarning).
		WithData(Record(models.EventTypeDisengaged, sel.Frame, sel.Alert, sel.Latched, sel.State))
	p.publish(event)
}

func (p *Publisher) CallbackFailed(frame uint64, eventName string) {
	event := models.NewEvent(models.EventTypeCallbackFailed, frame, "Alert callback failed: "+eventName).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"event": eventName,
		})
	p.publish(event)
}

func (p *Publisher) SourceError(frame uint64, source string, err error) {
	event := models.NewEvent(models.EventTypeSourceError, frame, "Frame source error: "+source).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"source": source,
			"error":  err.Error(),
		})
	p.publish(event)
}
