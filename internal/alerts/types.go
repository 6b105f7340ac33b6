package alerts

import (
	"fmt"
	"strconv"
)

// EventName identifies an event. Identifiers are dense and totally ordered;
// the numeric order is the arbitration tie-break.
type EventName uint16

func (n EventName) String() string {
	return "event(" + strconv.Itoa(int(n)) + ")"
}

// EventType is the context an event fired under on a given tick.
type EventType uint8

const (
	Enable EventType = iota
	UserDisable
	ImmediateDisable
	SoftDisable
	Warning
	NoEntry
	Permanent
	OverrideLateral
	OverrideLongitudinal

	numEventTypes
)

// NumEventTypes is the size of the closed context set.
const NumEventTypes = int(numEventTypes)

var eventTypeNames = [numEventTypes]string{
	Enable:               "enable",
	UserDisable:          "userDisable",
	ImmediateDisable:     "immediateDisable",
	SoftDisable:          "softDisable",
	Warning:              "warning",
	NoEntry:              "noEntry",
	Permanent:            "permanent",
	OverrideLateral:      "overrideLateral",
	OverrideLongitudinal: "overrideLongitudinal",
}

// EventTypes lists every context in ordinal order.
func EventTypes() []EventType {
	types := make([]EventType, 0, numEventTypes)
	for et := EventType(0); et < numEventTypes; et++ {
		types = append(types, et)
	}
	return types
}

func (t EventType) Valid() bool {
	return t < numEventTypes
}

func (t EventType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return eventTypeNames[t]
}

func (t EventType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid event type %d", uint8(t))
	}
	return []byte(eventTypeNames[t]), nil
}

func (t *EventType) UnmarshalText(text []byte) error {
	parsed, err := ParseEventType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseEventType(s string) (EventType, error) {
	for et, name := range eventTypeNames {
		if name == s {
			return EventType(et), nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// Priority orders simultaneously active alerts. Higher wins.
type Priority uint8

const (
	PriorityLowest Priority = iota
	PriorityLower
	PriorityLow
	PriorityMid
	PriorityHigh
	PriorityHighest

	numPriorities
)

var priorityNames = [numPriorities]string{
	PriorityLowest:  "lowest",
	PriorityLower:   "lower",
	PriorityLow:     "low",
	PriorityMid:     "mid",
	PriorityHigh:    "high",
	PriorityHighest: "highest",
}

func (p Priority) Valid() bool {
	return p < numPriorities
}

func (p Priority) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return priorityNames[p]
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", uint8(p))
	}
	return []byte(priorityNames[p]), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	for i, name := range priorityNames {
		if name == string(text) {
			*p = Priority(i)
			return nil
		}
	}
	return fmt.Errorf("unknown priority %q", string(text))
}

type AlertStatus string

const (
	StatusNormal     AlertStatus = "normal"
	StatusUserPrompt AlertStatus = "userPrompt"
	StatusCritical   AlertStatus = "critical"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case StatusNormal, StatusUserPrompt, StatusCritical:
		return true
	}
	return false
}

type AlertSize string

const (
	SizeNone  AlertSize = "none"
	SizeSmall AlertSize = "small"
	SizeMid   AlertSize = "mid"
	SizeFull  AlertSize = "full"
)

func (s AlertSize) Valid() bool {
	switch s {
	case SizeNone, SizeSmall, SizeMid, SizeFull:
		return true
	}
	return false
}

type VisualAlert string

const (
	VisualNone              VisualAlert = "none"
	VisualFCW               VisualAlert = "fcw"
	VisualSteerRequired     VisualAlert = "steerRequired"
	VisualBrakePressed      VisualAlert = "brakePressed"
	VisualWrongGear         VisualAlert = "wrongGear"
	VisualSeatbeltUnbuckled VisualAlert = "seatbeltUnbuckled"
	VisualSpeedTooHigh      VisualAlert = "speedTooHigh"
	VisualLDW               VisualAlert = "ldw"
)

func (v VisualAlert) Valid() bool {
	switch v {
	case VisualNone, VisualFCW, VisualSteerRequired, VisualBrakePressed,
		VisualWrongGear, VisualSeatbeltUnbuckled, VisualSpeedTooHigh, VisualLDW:
		return true
	}
	return false
}

type AudibleAlert string

const (
	AudibleNone             AudibleAlert = "none"
	AudibleEngage           AudibleAlert = "engage"
	AudibleDisengage        AudibleAlert = "disengage"
	AudibleRefuse           AudibleAlert = "refuse"
	AudibleWarningSoft      AudibleAlert = "warningSoft"
	AudibleWarningImmediate AudibleAlert = "warningImmediate"
	AudiblePrompt           AudibleAlert = "prompt"
	AudiblePromptRepeat     AudibleAlert = "promptRepeat"
	AudiblePromptDistracted AudibleAlert = "promptDistracted"
	AudiblePromptSingleLow  AudibleAlert = "promptSingleLow"
	AudiblePromptSingleHigh AudibleAlert = "promptSingleHigh"
)

func (a AudibleAlert) Valid() bool {
	switch a {
	case AudibleNone, AudibleEngage, AudibleDisengage, AudibleRefuse,
		AudibleWarningSoft, AudibleWarningImmediate, AudiblePrompt, AudiblePromptRepeat,
		AudiblePromptDistracted, AudiblePromptSingleLow, AudiblePromptSingleHigh:
		return true
	}
	return false
}
