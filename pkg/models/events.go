package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a control loop outcome on the bus and in history rows.
type EventType string

const (
	EventTypeTick               EventType = "tick"
	EventTypeAlertChanged       EventType = "alert_changed"
	EventTypeAlertCleared       EventType = "alert_cleared"
	EventTypeEngagementAccepted EventType = "engagement_accepted"
	EventTypeEngagementRejected EventType = "engagement_rejected"
	EventTypeDisengaged         EventType = "disengaged"
	EventTypeCallbackFailed     EventType = "callback_failed"
	EventTypeSourceError        EventType = "source_error"
)

// Persisted reports whether events of this type end up in alert history.
func (t EventType) Persisted() bool {
	switch t {
	case EventTypeTick, EventTypeSourceError:
		return false
	}
	return true
}

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event is an outcome of the control loop published on the internal bus.
// Data is shared between subscribers and must be treated as read-only.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	Frame     uint64        `json:"frame"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, frame uint64, message string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Severity:  SeverityInfo,
		Frame:     frame,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}

// Record returns the alert record carried by the event, if any.
func (e *Event) Record() (*AlertRecord, bool) {
	rec, ok := e.Data.(*AlertRecord)
	return rec, ok && rec != nil
}
