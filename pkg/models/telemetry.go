package models

import "time"

// Unit conversions used by alert callbacks.
const (
	MsToKph = 3.6
	MsToMph = 3.6 / 1.609344
	KphToMs = 1 / MsToKph
	MphToMs = 1 / MsToMph
)

type Personality string

const (
	PersonalityAggressive Personality = "aggressive"
	PersonalityStandard   Personality = "standard"
	PersonalityRelaxed    Personality = "relaxed"
)

type GearShifter string

const (
	GearUnknown GearShifter = "unknown"
	GearPark    GearShifter = "park"
	GearDrive   GearShifter = "drive"
	GearNeutral GearShifter = "neutral"
	GearReverse GearShifter = "reverse"
)

// CarParams holds the static vehicle parameters for the session.
type CarParams struct {
	Brand                        string `json:"brand"`
	OpenpilotLongitudinalControl bool   `json:"openpilot_longitudinal_control"`
	PcmCruise                    bool   `json:"pcm_cruise"`
}

type CruiseState struct {
	Available bool    `json:"available"`
	Enabled   bool    `json:"enabled"`
	Speed     float64 `json:"speed"`
}

// CarState is the decoded vehicle state for a single tick.
type CarState struct {
	VEgo            float64     `json:"v_ego"`
	GearShifter     GearShifter `json:"gear_shifter"`
	SteeringPressed bool        `json:"steering_pressed"`
	GasPressed      bool        `json:"gas_pressed"`
	BrakePressed    bool        `json:"brake_pressed"`
	CruiseState     CruiseState `json:"cruise_state"`
}

// SpeedLimitResolver carries the resolved speed limits in m/s.
type SpeedLimitResolver struct {
	SpeedLimit          float64 `json:"speed_limit"`
	SpeedLimitLast      float64 `json:"speed_limit_last"`
	SpeedLimitFinal     float64 `json:"speed_limit_final"`
	SpeedLimitFinalLast float64 `json:"speed_limit_final_last"`
}

type SpeedLimit struct {
	Resolver SpeedLimitResolver `json:"resolver"`
}

// LongitudinalPlan is the planner sub-message consumed by speed limit alerts.
type LongitudinalPlan struct {
	SpeedLimit SpeedLimit `json:"speed_limit"`
}

// Snapshot is the read-only telemetry view handed to the arbiter for one tick.
// LongitudinalPlan is nil when the planner message was not received.
type Snapshot struct {
	CarParams        CarParams         `json:"car_params"`
	CarState         CarState          `json:"car_state"`
	LongitudinalPlan *LongitudinalPlan `json:"longitudinal_plan,omitempty"`
	IsMetric         bool              `json:"is_metric"`
	SoftDisableTime  time.Duration     `json:"soft_disable_time"`
	Personality      Personality       `json:"personality"`
}

// SpeedConversion returns the m/s multiplier and unit label for the
// snapshot's unit system.
func (s *Snapshot) SpeedConversion() (float64, string) {
	if s.IsMetric {
		return MsToKph, "km/h"
	}
	return MsToMph, "mph"
}
