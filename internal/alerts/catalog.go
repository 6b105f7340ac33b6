package alerts

import (
	"fmt"
	"time"
)

// MessageKindOnroadEvents is the schema tag of the built-in event family.
const MessageKindOnroadEvents Kind = "onroadEventsSP"

const (
	LkasEnable EventName = iota
	LkasDisable
	ManualSteeringRequired
	ManualLongitudinalRequired
	SilentLkasEnable
	SilentLkasDisable
	SilentBrakeHold
	SilentWrongGear
	SilentReverseGear
	SilentDoorOpen
	SilentSeatbeltNotLatched
	SilentParkBrake
	ControlsMismatchLateral
	ExperimentalModeSwitched
	WrongCarModeAlertOnly
	PedalPressedAlertOnly
	LaneTurnLeft
	LaneTurnRight
	SpeedLimitActive
	SpeedLimitChanged
	SpeedLimitPreActive
	SpeedLimitPending
	SpeedLimitAdjusting
	E2eChime
)

var defaultNames = map[EventName]string{
	LkasEnable:                 "lkasEnable",
	LkasDisable:                "lkasDisable",
	ManualSteeringRequired:     "manualSteeringRequired",
	ManualLongitudinalRequired: "manualLongitudinalRequired",
	SilentLkasEnable:           "silentLkasEnable",
	SilentLkasDisable:          "silentLkasDisable",
	SilentBrakeHold:            "silentBrakeHold",
	SilentWrongGear:            "silentWrongGear",
	SilentReverseGear:          "silentReverseGear",
	SilentDoorOpen:             "silentDoorOpen",
	SilentSeatbeltNotLatched:   "silentSeatbeltNotLatched",
	SilentParkBrake:            "silentParkBrake",
	ControlsMismatchLateral:    "controlsMismatchLateral",
	ExperimentalModeSwitched:   "experimentalModeSwitched",
	WrongCarModeAlertOnly:      "wrongCarModeAlertOnly",
	PedalPressedAlertOnly:      "pedalPressedAlertOnly",
	LaneTurnLeft:               "laneTurnLeft",
	LaneTurnRight:              "laneTurnRight",
	SpeedLimitActive:           "speedLimitActive",
	SpeedLimitChanged:          "speedLimitChanged",
	SpeedLimitPreActive:        "speedLimitPreActive",
	SpeedLimitPending:          "speedLimitPending",
	SpeedLimitAdjusting:        "speedLimitAdjusting",
	E2eChime:                   "e2eChime",
}

// silent occupies the slot without any UI, used to hold off lower alerts.
func silent(p Priority) Alert {
	return Alert{
		Status:   StatusNormal,
		Size:     SizeNone,
		Priority: p,
		Visual:   VisualNone,
		Audible:  AudibleNone,
	}
}

func banner(text1 string, audible AudibleAlert, duration time.Duration) Alert {
	return Alert{
		Text1:    text1,
		Status:   StatusNormal,
		Size:     SizeSmall,
		Priority: PriorityLow,
		Visual:   VisualNone,
		Audible:  audible,
		Duration: duration,
	}
}

func defaultMapping() Mapping {
	return Mapping{
		LkasEnable: {
			Enable: Static(EngagementAlert(AudibleEngage)),
		},
		LkasDisable: {
			UserDisable: Static(EngagementAlert(AudibleDisengage)),
		},
		ManualSteeringRequired: {
			UserDisable: Static(Alert{
				Text1:    "Automatic Lane Centering is OFF",
				Text2:    "Manual Steering Required",
				Status:   StatusNormal,
				Size:     SizeMid,
				Priority: PriorityLow,
				Visual:   VisualNone,
				Audible:  AudibleDisengage,
				Duration: time.Second,
			}),
		},
		ManualLongitudinalRequired: {
			Warning: Static(Alert{
				Text1:    "Adaptive Cruise Control: OFF",
				Text2:    "Manual Speed Control Required",
				Status:   StatusNormal,
				Size:     SizeMid,
				Priority: PriorityLow,
				Visual:   VisualNone,
				Audible:  AudibleNone,
				Duration: time.Second,
			}),
		},
		SilentLkasEnable: {
			Enable: Static(EngagementAlert(AudibleNone)),
		},
		SilentLkasDisable: {
			UserDisable: Static(EngagementAlert(AudibleNone)),
		},
		SilentBrakeHold: {
			Warning: Static(EngagementAlert(AudibleNone)),
			NoEntry: Static(NoEntryAlert("Brake Hold Active")),
		},
		SilentWrongGear: {
			Warning: Static(silent(PriorityLowest)),
			NoEntry: Static(Alert{
				Text1:    "Gear not D",
				Text2:    "openpilot Unavailable",
				Status:   StatusNormal,
				Size:     SizeNone,
				Priority: PriorityLow,
				Visual:   VisualNone,
				Audible:  AudibleNone,
			}),
		},
		SilentReverseGear: {
			Permanent: Static(Alert{
				Text1:         "Reverse\nGear",
				Status:        StatusNormal,
				Size:          SizeFull,
				Priority:      PriorityLowest,
				Visual:        VisualNone,
				Audible:       AudibleNone,
				Duration:      200 * time.Millisecond,
				CreationDelay: 500 * time.Millisecond,
			}),
			NoEntry: Static(NoEntryAlert("Reverse Gear")),
		},
		SilentDoorOpen: {
			Warning: Static(silent(PriorityLowest)),
			NoEntry: Static(NoEntryAlert("Door Open")),
		},
		SilentSeatbeltNotLatched: {
			Warning: Static(silent(PriorityLowest)),
			NoEntry: Static(NoEntryAlert("Seatbelt Unlatched")),
		},
		SilentParkBrake: {
			Warning: Static(silent(PriorityLowest)),
			NoEntry: Static(NoEntryAlert("Parking Brake Engaged")),
		},
		ControlsMismatchLateral: {
			ImmediateDisable: Static(ImmediateDisableAlert("Controls Mismatch: Lateral")),
			NoEntry:          Static(NoEntryAlert("Controls Mismatch: Lateral")),
		},
		ExperimentalModeSwitched: {
			Warning: Static(NormalPermanentAlert("Experimental Mode Switched", WithDuration(1500*time.Millisecond))),
		},
		WrongCarModeAlertOnly: {
			Warning: Computed(wrongCarModeAlert),
		},
		PedalPressedAlertOnly: {
			Warning: Static(NoEntryAlert("Pedal Pressed")),
		},
		LaneTurnLeft: {
			Warning: Static(banner("Turning Left", AudibleNone, time.Second)),
		},
		LaneTurnRight: {
			Warning: Static(banner("Turning Right", AudibleNone, time.Second)),
		},
		SpeedLimitActive: {
			Warning: Static(banner("Auto adjusting to speed limit", AudiblePromptSingleHigh, 5*time.Second)),
		},
		SpeedLimitChanged: {
			Warning: Static(banner("Set speed changed", AudiblePromptSingleHigh, 5*time.Second)),
		},
		SpeedLimitPreActive: {
			Warning: Computed(speedLimitPreActiveAlert),
		},
		SpeedLimitPending: {
			Warning: Static(banner("Auto adjusting to last speed limit", AudiblePromptSingleHigh, 5*time.Second)),
		},
		SpeedLimitAdjusting: {
			Warning: Computed(speedLimitAdjustAlert),
		},
		E2eChime: {
			Permanent: Static(Alert{
				Status:   StatusNormal,
				Size:     SizeNone,
				Priority: PriorityMid,
				Visual:   VisualNone,
				Audible:  AudiblePromptRepeat,
				Duration: time.Second,
			}),
		},
	}
}

// DefaultRegistry builds the registry of the built-in event family.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(MessageKindOnroadEvents, defaultNames)
	if err != nil {
		panic(fmt.Sprintf("built-in event registry: %v", err))
	}
	return r
}

// DefaultCatalog builds the built-in table with optional static overrides
// applied by event name. Overrides referencing unknown events or contexts
// the event does not define fail with ErrInvalidMapping.
func DefaultCatalog(overrides Overrides) (*Table, error) {
	registry := DefaultRegistry()
	mapping := defaultMapping()

	if err := overrides.apply(registry, mapping); err != nil {
		return nil, err
	}

	return NewTable(registry, mapping)
}
