package websocket

import (
	"encoding/json"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

type MessageType string

const (
	MessageTypeAlert        MessageType = "alert"
	MessageTypeAlertCleared MessageType = "alert_cleared"
	MessageTypeEngagement   MessageType = "engagement"
	MessageTypeDisengaged   MessageType = "disengaged"
	MessageTypeError        MessageType = "error"
	MessageTypeTick         MessageType = "tick"
	MessageTypeCurrent      MessageType = "current"
	MessageTypeSubscription MessageType = "subscription_update"
)

type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	Event     string      `json:"event,omitempty"`
	Frame     uint64      `json:"frame"`
	Timestamp time.Time   `json:"timestamp"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func NewMessage(msgType MessageType, frame uint64, data interface{}) *OutgoingMessage {
	return &OutgoingMessage{
		Type:      msgType,
		Frame:     frame,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func (m *OutgoingMessage) JSON() []byte {
	data, _ := json.Marshal(m)
	return data
}

// MessageTypeFor maps bus events to client message types. Empty means the
// event is not sent to clients.
func MessageTypeFor(eventType models.EventType) MessageType {
	switch eventType {
	case models.EventTypeAlertChanged:
		return MessageTypeAlert
	case models.EventTypeAlertCleared:
		return MessageTypeAlertCleared
	case models.EventTypeEngagementAccepted, models.EventTypeEngagementRejected:
		return MessageTypeEngagement
	case models.EventTypeDisengaged:
		return MessageTypeDisengaged
	case models.EventTypeCallbackFailed, models.EventTypeSourceError:
		return MessageTypeError
	case models.EventTypeTick:
		return MessageTypeTick
	default:
		return ""
	}
}

// FromEvent converts a bus event, nil when clients don't receive it.
func FromEvent(event *models.Event) *OutgoingMessage {
	msgType := MessageTypeFor(event.Type)
	if msgType == "" {
		return nil
	}

	return &OutgoingMessage{
		Type:      msgType,
		Event:     string(event.Type),
		Frame:     event.Frame,
		Timestamp: event.Timestamp,
		Severity:  string(event.Severity),
		Message:   event.Message,
		Data:      event.Data,
	}
}

// CurrentMessage greets a new client with what is on screen right now.
func CurrentMessage(sel arbiter.Selection) *OutgoingMessage {
	return NewMessage(MessageTypeCurrent, sel.Frame, sel)
}
