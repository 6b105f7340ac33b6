package models

import "time"

// AlertRecord is one persisted change of the displayed alert or of the
// engagement state.
type AlertRecord struct {
	ID        int64     `json:"id"`
	Frame     uint64    `json:"frame"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EventType `json:"kind"`
	AlertType string    `json:"alert_type,omitempty"`
	EventName string    `json:"event_name,omitempty"`
	Context   string    `json:"context,omitempty"`
	Priority  string    `json:"priority,omitempty"`
	Text1     string    `json:"text1,omitempty"`
	Text2     string    `json:"text2,omitempty"`
	Latched   bool      `json:"latched"`
	Fallback  bool      `json:"fallback"`
	State     string    `json:"state"`
}

// AlertCount is an aggregate of history rows per alert type.
type AlertCount struct {
	AlertType string `json:"alert_type"`
	Count     int64  `json:"count"`
}
