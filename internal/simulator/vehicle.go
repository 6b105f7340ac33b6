package simulator

import (
	"sync"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/internal/collector"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// VehicleState is the simulated car a Scenario drives. Speeds are m/s.
type VehicleState struct {
	Gear              models.GearShifter
	Speed             float64
	DoorOpen          bool
	SeatbeltUnlatched bool
	ParkBrake         bool
	BrakeHold         bool
	SpeedLimit        float64
	PlanAvailable     bool
	LateralMismatch   bool
	Engage            bool
	Disengage         bool
}

type VehicleSimConfig struct {
	Brand       string
	Metric      bool
	PcmCruise   bool
	SoftDisable time.Duration
}

// VehicleSim turns scenario state into frames.
type VehicleSim struct {
	params      models.CarParams
	metric      bool
	softDisable time.Duration
	scenario    Scenario
	state       VehicleState
	prevLimit   float64
	frame       uint64
	mu          sync.Mutex
}

func NewVehicleSim(scenario Scenario, cfg VehicleSimConfig) *VehicleSim {
	if cfg.Brand == "" {
		cfg.Brand = "toyota"
	}
	if cfg.SoftDisable == 0 {
		cfg.SoftDisable = 2 * time.Second
	}
	if scenario == nil {
		scenario = &SteadyScenario{}
	}

	return &VehicleSim{
		params: models.CarParams{
			Brand:                        cfg.Brand,
			OpenpilotLongitudinalControl: true,
			PcmCruise:                    cfg.PcmCruise,
		},
		metric:      cfg.Metric,
		softDisable: cfg.SoftDisable,
		scenario:    scenario,
		state:       VehicleState{Gear: models.GearPark},
	}
}

func (v *VehicleSim) SetScenario(s Scenario) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scenario = s
}

func (v *VehicleSim) Scenario() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scenario.Name()
}

func (v *VehicleSim) Frame() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame
}

// Next advances one frame.
func (v *VehicleSim) Next() *collector.Frame {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.frame++
	v.scenario.Step(&v.state, v.frame)

	frame := &collector.Frame{
		Number:   v.frame,
		Events:   v.events(),
		Snapshot: v.snapshot(),
		Engage:   v.state.Engage,
	}
	v.prevLimit = v.state.SpeedLimit
	return frame
}

func (v *VehicleSim) events() []arbiter.ActiveEvent {
	s := &v.state
	var events []arbiter.ActiveEvent
	add := func(name alerts.EventName, types ...alerts.EventType) {
		events = append(events, arbiter.ActiveEvent{Name: name, Types: types})
	}

	switch s.Gear {
	case models.GearReverse:
		add(alerts.SilentReverseGear, alerts.Permanent, alerts.NoEntry)
	case models.GearDrive:
	default:
		add(alerts.SilentWrongGear, alerts.Warning, alerts.NoEntry)
	}
	if s.DoorOpen {
		add(alerts.SilentDoorOpen, alerts.Warning, alerts.NoEntry)
	}
	if s.SeatbeltUnlatched {
		add(alerts.SilentSeatbeltNotLatched, alerts.Warning, alerts.NoEntry)
	}
	if s.ParkBrake {
		add(alerts.SilentParkBrake, alerts.Warning, alerts.NoEntry)
	}
	if s.BrakeHold {
		add(alerts.SilentBrakeHold, alerts.Warning, alerts.NoEntry)
	}
	if s.SpeedLimit > 0 {
		if v.prevLimit > 0 && s.SpeedLimit != v.prevLimit {
			add(alerts.SpeedLimitChanged, alerts.Warning)
		}
		if s.Speed > s.SpeedLimit+1 {
			add(alerts.SpeedLimitAdjusting, alerts.Warning)
		}
	}
	if s.LateralMismatch {
		add(alerts.ControlsMismatchLateral, alerts.ImmediateDisable, alerts.NoEntry)
	}
	if s.Engage {
		add(alerts.LkasEnable, alerts.Enable)
	}
	if s.Disengage {
		add(alerts.LkasDisable, alerts.UserDisable)
	}

	return events
}

func (v *VehicleSim) snapshot() *models.Snapshot {
	s := &v.state
	snap := &models.Snapshot{
		CarParams: v.params,
		CarState: models.CarState{
			VEgo:        s.Speed,
			GearShifter: s.Gear,
			CruiseState: models.CruiseState{Available: true, Speed: s.Speed},
		},
		IsMetric:        v.metric,
		SoftDisableTime: v.softDisable,
		Personality:     models.PersonalityStandard,
	}
	if s.PlanAvailable {
		snap.LongitudinalPlan = &models.LongitudinalPlan{
			SpeedLimit: models.SpeedLimit{Resolver: models.SpeedLimitResolver{
				SpeedLimit:          s.SpeedLimit,
				SpeedLimitLast:      v.prevLimit,
				SpeedLimitFinal:     s.SpeedLimit,
				SpeedLimitFinalLast: v.prevLimit,
			}},
		}
	}
	return snap
}

// Status summarises the simulated car for the bridge's status endpoint.
func (v *VehicleSim) Status() map[string]interface{} {
	v.mu.Lock()
	defer v.mu.Unlock()

	return map[string]interface{}{
		"scenario":    v.scenario.Name(),
		"frame":       v.frame,
		"gear":        v.state.Gear,
		"speed":       v.state.Speed,
		"speed_limit": v.state.SpeedLimit,
		"door_open":   v.state.DoorOpen,
	}
}
