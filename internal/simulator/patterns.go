package simulator

import (
	"math/rand"
	"sort"

	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// Scenario scripts the vehicle state for each frame. Step must be
// deterministic in the frame number except for RandomScenario.
type Scenario interface {
	Step(state *VehicleState, frame uint64)
	Name() string
}

var scenarios = map[string]func() Scenario{
	"steady":      func() Scenario { return &SteadyScenario{} },
	"commute":     func() Scenario { return &CommuteScenario{} },
	"reverse":     func() Scenario { return &ReverseScenario{} },
	"speed_limit": func() Scenario { return &SpeedLimitScenario{} },
	"random":      func() Scenario { return NewRandomScenario(1) },
}

// ParseScenario falls back to steady for unknown names.
func ParseScenario(name string) Scenario {
	if build, ok := scenarios[name]; ok {
		return build()
	}
	return &SteadyScenario{}
}

func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func drive(state *VehicleState, speed float64) {
	state.Gear = models.GearDrive
	state.Speed = speed
	state.DoorOpen = false
	state.SeatbeltUnlatched = false
	state.ParkBrake = false
}

// SteadyScenario cruises with nothing to report.
type SteadyScenario struct{}

func (s *SteadyScenario) Step(state *VehicleState, frame uint64) {
	drive(state, 25)
	state.PlanAvailable = true
	state.Engage = frame == 1
}

func (s *SteadyScenario) Name() string {
	return "steady"
}

// CommuteScenario walks through a 300-frame trip: boarding, a rejected
// engagement, reversing out, an accepted engagement, a speed limit change
// and a lateral controls mismatch.
type CommuteScenario struct{}

func (s *CommuteScenario) Step(state *VehicleState, frame uint64) {
	f := (frame - 1) % 300

	state.Engage = false
	state.Disengage = false
	state.LateralMismatch = false
	state.PlanAvailable = true

	switch {
	case f < 40:
		state.Gear = models.GearPark
		state.Speed = 0
		state.DoorOpen = f < 20
		state.SeatbeltUnlatched = f < 30
		state.ParkBrake = true
		state.SpeedLimit = 0
		state.Engage = f == 25
	case f < 80:
		state.Gear = models.GearReverse
		state.Speed = 1.5
		state.DoorOpen = false
		state.SeatbeltUnlatched = false
		state.ParkBrake = false
	default:
		drive(state, 22)
		state.Engage = f == 100
		if f >= 150 {
			state.SpeedLimit = 80 * models.KphToMs
		} else {
			state.SpeedLimit = 60 * models.KphToMs
		}
		state.LateralMismatch = f >= 250 && f < 255
	}
}

func (s *CommuteScenario) Name() string {
	return "commute"
}

// ReverseScenario alternates 40 frames of reverse with 40 of drive.
type ReverseScenario struct{}

func (s *ReverseScenario) Step(state *VehicleState, frame uint64) {
	state.PlanAvailable = true
	state.Engage = false
	if ((frame-1)/40)%2 == 0 {
		state.Gear = models.GearReverse
		state.Speed = 1
		return
	}
	drive(state, 8)
}

func (s *ReverseScenario) Name() string {
	return "reverse"
}

// SpeedLimitScenario steps the limit every 100 frames and drops the planner
// message for one period in seven.
type SpeedLimitScenario struct{}

var speedLimitSteps = []float64{50, 70, 90, 110, 70}

func (s *SpeedLimitScenario) Step(state *VehicleState, frame uint64) {
	period := (frame - 1) / 100
	drive(state, 27)
	state.Engage = frame == 1
	state.SpeedLimit = speedLimitSteps[period%uint64(len(speedLimitSteps))] * models.KphToMs
	state.PlanAvailable = period%7 != 6
}

func (s *SpeedLimitScenario) Name() string {
	return "speed_limit"
}

// RandomScenario flips conditions at random, useful for soak tests.
type RandomScenario struct {
	rng *rand.Rand
}

func NewRandomScenario(seed int64) *RandomScenario {
	return &RandomScenario{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomScenario) Step(state *VehicleState, frame uint64) {
	flip := func(p float64) bool { return s.rng.Float64() < p }

	if flip(0.01) {
		gears := []models.GearShifter{models.GearDrive, models.GearDrive, models.GearReverse, models.GearPark}
		state.Gear = gears[s.rng.Intn(len(gears))]
	}
	if flip(0.02) {
		state.DoorOpen = !state.DoorOpen
	}
	if flip(0.02) {
		state.SeatbeltUnlatched = !state.SeatbeltUnlatched
	}
	if flip(0.01) {
		state.SpeedLimit = float64(30+10*s.rng.Intn(10)) * models.KphToMs
	}
	state.PlanAvailable = !flip(0.01)
	state.LateralMismatch = flip(0.002)
	state.Engage = flip(0.01)
	state.Disengage = flip(0.005)
	state.Speed = 5 + s.rng.Float64()*25
}

func (s *RandomScenario) Name() string {
	return "random"
}
