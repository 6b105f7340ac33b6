package arbiter

import (
	"github.com/OldStager01/alert-arbiter/internal/alerts"
)

// ActiveEvent is one entry of the per-frame active-event list.
type ActiveEvent struct {
	Name  alerts.EventName   `json:"name"`
	Types []alerts.EventType `json:"types"`
}

type EngagementState string

const (
	StateDisabled      EngagementState = "disabled"
	StateEnabled       EngagementState = "enabled"
	StateSoftDisabling EngagementState = "softDisabling"
)

// Candidate is a resolved alert together with the pair that produced it.
type Candidate struct {
	Event     alerts.EventName `json:"event"`
	EventName string           `json:"event_name"`
	Type      alerts.EventType `json:"type"`
	AlertType string           `json:"alert_type"`
	Alert     alerts.Alert     `json:"alert"`
	Fallback  bool             `json:"fallback,omitempty"`
}

// outranks reports whether c is preferred over other: higher priority,
// then lower event identifier, then lower context ordinal.
func (c *Candidate) outranks(other *Candidate) bool {
	if c.Alert.Priority != other.Alert.Priority {
		return c.Alert.Priority > other.Alert.Priority
	}
	if c.Event != other.Event {
		return c.Event < other.Event
	}
	return c.Type < other.Type
}

func (c *Candidate) samePair(other *Candidate) bool {
	return c.Event == other.Event && c.Type == other.Type
}

// Selection is the outcome of one arbitration frame. Candidates and
// Failures share buffers owned by the engine and are only valid until the
// next Arbitrate call; use Clone to keep them. Alert is never mutated once
// returned.
type Selection struct {
	Frame      uint64             `json:"frame"`
	Alert      *Candidate         `json:"alert,omitempty"`
	Latched    bool               `json:"latched"`
	Candidates []Candidate        `json:"candidates"`
	Suppressed int                `json:"suppressed"`
	Failures   []alerts.EventName `json:"failures,omitempty"`
	Unknown    int                `json:"unknown,omitempty"`
	State      EngagementState    `json:"state"`
	Disengaged bool               `json:"disengaged"`
}

// Quiet reports whether no alert is shown this frame.
func (s Selection) Quiet() bool {
	return s.Alert == nil
}

func (s Selection) Clone() Selection {
	out := s
	if s.Candidates != nil {
		out.Candidates = append([]Candidate(nil), s.Candidates...)
	}
	if s.Failures != nil {
		out.Failures = append([]alerts.EventName(nil), s.Failures...)
	}
	return out
}
