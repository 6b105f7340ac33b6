package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/collector"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

func hasEvent(f *collector.Frame, name alerts.EventName) bool {
	for _, ev := range f.Events {
		if ev.Name == name {
			return true
		}
	}
	return false
}

func run(v *VehicleSim, n int) []*collector.Frame {
	frames := make([]*collector.Frame, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, v.Next())
	}
	return frames
}

func TestParseScenario(t *testing.T) {
	for _, name := range ScenarioNames() {
		assert.Equal(t, name, ParseScenario(name).Name())
	}
	assert.Equal(t, "steady", ParseScenario("nope").Name())
}

func TestCommuteScenario(t *testing.T) {
	frames := run(NewVehicleSim(&CommuteScenario{}, VehicleSimConfig{Metric: true}), 300)

	assert.True(t, hasEvent(frames[0], alerts.SilentDoorOpen))
	assert.True(t, hasEvent(frames[0], alerts.SilentWrongGear))
	assert.True(t, frames[25].Engage)
	assert.True(t, hasEvent(frames[25], alerts.SilentSeatbeltNotLatched))
	assert.True(t, hasEvent(frames[50], alerts.SilentReverseGear))
	assert.True(t, frames[100].Engage)
	assert.False(t, hasEvent(frames[100], alerts.SilentWrongGear))
	assert.True(t, hasEvent(frames[150], alerts.SpeedLimitChanged))
	assert.False(t, hasEvent(frames[151], alerts.SpeedLimitChanged))
	assert.True(t, hasEvent(frames[250], alerts.ControlsMismatchLateral))
	assert.Equal(t, uint64(300), frames[299].Number)
}

func TestReverseScenario(t *testing.T) {
	frames := run(NewVehicleSim(&ReverseScenario{}, VehicleSimConfig{}), 80)

	assert.True(t, hasEvent(frames[0], alerts.SilentReverseGear))
	assert.True(t, hasEvent(frames[39], alerts.SilentReverseGear))
	assert.False(t, hasEvent(frames[40], alerts.SilentReverseGear))
	assert.Equal(t, models.GearDrive, frames[40].Snapshot.CarState.GearShifter)
}

func TestSpeedLimitScenario_DropsPlan(t *testing.T) {
	frames := run(NewVehicleSim(&SpeedLimitScenario{}, VehicleSimConfig{}), 700)

	assert.NotNil(t, frames[0].Snapshot.LongitudinalPlan)
	assert.Nil(t, frames[600].Snapshot.LongitudinalPlan)
	assert.True(t, hasEvent(frames[100], alerts.SpeedLimitChanged))
}

func TestRandomScenario_Deterministic(t *testing.T) {
	a := run(NewVehicleSim(NewRandomScenario(7), VehicleSimConfig{}), 200)
	b := run(NewVehicleSim(NewRandomScenario(7), VehicleSimConfig{}), 200)

	assert.Equal(t, a, b)
}

func TestCollector(t *testing.T) {
	c := NewCollector(NewVehicleSim(nil, VehicleSimConfig{}), 3)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		f, err := c.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), f.Number)
	}
	_, err := c.Next(ctx)
	assert.ErrorIs(t, err, collector.ErrExhausted)
}

func TestSimulator_Bridge(t *testing.T) {
	decoder := collector.NewDecoder(alerts.DefaultRegistry())
	sim := New(Config{Scenario: "reverse"}, decoder)
	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()

	c := collector.NewHTTPCollector(collector.HTTPCollectorConfig{Endpoint: srv.URL, Decoder: decoder})
	require.NoError(t, c.HealthCheck(context.Background()))

	frame, err := c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), frame.Number)
	assert.True(t, hasEvent(frame, alerts.SilentReverseGear))

	resp, err := http.Post(srv.URL+"/scenario?name=commute", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "commute", sim.Vehicle().Scenario())

	resp, err = http.Post(srv.URL+"/scenario?name=moon", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	rec := httptest.NewRecorder()
	sim.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "commute", status["scenario"])
}

func TestSimulator_BridgeEndsDrive(t *testing.T) {
	decoder := collector.NewDecoder(alerts.DefaultRegistry())
	sim := New(Config{Scenario: "steady", Frames: 2}, decoder)
	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()

	c := collector.NewHTTPCollector(collector.HTTPCollectorConfig{Endpoint: srv.URL, Timeout: time.Second, Decoder: decoder})
	defer c.Close()
	ctx := context.Background()

	for want := uint64(1); want <= 2; want++ {
		frame, err := c.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, frame.Number)
	}
	_, err := c.Next(ctx)
	assert.ErrorIs(t, err, collector.ErrExhausted)
}
