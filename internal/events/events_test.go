package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

type memoryHistory struct {
	mu      sync.Mutex
	records []*models.AlertRecord
	err     error
}

func (m *memoryHistory) Insert(_ context.Context, rec *models.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryHistory) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func sampleSelection() arbiter.Selection {
	c := arbiter.Candidate{
		Event:     alerts.ControlsMismatchLateral,
		EventName: "controlsMismatchLateral",
		Type:      alerts.ImmediateDisable,
		AlertType: "controlsMismatchLateral/immediateDisable",
		Alert:     alerts.ImmediateDisableAlert("Controls Mismatch: Lateral"),
	}
	return arbiter.Selection{
		Frame:      7,
		Alert:      &c,
		Candidates: []arbiter.Candidate{c},
		State:      arbiter.StateDisabled,
		Disengaged: true,
	}
}

func TestEventBus_Subscribe(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()

	changed := bus.Subscribe(models.EventTypeAlertChanged)
	all := bus.SubscribeAll()

	bus.Publish(models.NewEvent(models.EventTypeAlertChanged, 1, "changed"))
	bus.Publish(models.NewEvent(models.EventTypeTick, 1, "tick"))

	select {
	case ev := <-changed:
		assert.Equal(t, models.EventTypeAlertChanged, ev.Type)
	default:
		t.Fatal("expected alert_changed event")
	}
	assert.Len(t, changed, 0)
	assert.Len(t, all, 2)
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeTick)
	bus.Publish(models.NewEvent(models.EventTypeTick, 1, "a"))
	bus.Publish(models.NewEvent(models.EventTypeTick, 2, "b"))

	ev := <-ch
	assert.Equal(t, uint64(1), ev.Frame)
	assert.Len(t, ch, 0)
	assert.Equal(t, uint64(1), bus.Dropped())
}

func TestEventBus_DuplicateTypesDeliverOnce(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeDisengaged, models.EventTypeDisengaged)
	bus.Publish(models.NewEvent(models.EventTypeDisengaged, 3, "disengaged"))

	assert.Len(t, ch, 1)
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(0)
	ch := bus.Subscribe(models.EventTypeTick, models.EventTypeAlertCleared)

	bus.Close()
	bus.Close()
	bus.Publish(models.NewEvent(models.EventTypeTick, 1, "after close"))

	_, ok := <-ch
	assert.False(t, ok)

	_, ok = <-bus.SubscribeAll()
	assert.False(t, ok)
}

func TestPublisher_AlertChanged(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()
	ch := bus.Subscribe(models.EventTypeAlertChanged)

	NewPublisher(bus).WithTraceID("trace-1").AlertChanged(sampleSelection())

	ev := <-ch
	assert.Equal(t, models.SeverityCritical, ev.Severity)
	assert.Equal(t, "trace-1", ev.TraceID)

	rec, ok := ev.Data.(*models.AlertRecord)
	require.True(t, ok)
	assert.Equal(t, "controlsMismatchLateral/immediateDisable", rec.AlertType)
	assert.Equal(t, "immediateDisable", rec.Context)
	assert.Equal(t, "highest", rec.Priority)
	assert.Equal(t, "disabled", rec.State)
}

func TestPublisher_TickClonesSelection(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()
	ch := bus.Subscribe(models.EventTypeTick)

	sel := sampleSelection()
	NewPublisher(bus).Tick(sel)
	sel.Candidates[0].AlertType = "mutated"

	ev := <-ch
	published, ok := ev.Data.(arbiter.Selection)
	require.True(t, ok)
	assert.Equal(t, "controlsMismatchLateral/immediateDisable", published.Candidates[0].AlertType)
}

func TestEventLogger_PersistsRecords(t *testing.T) {
	bus := NewEventBus(16)
	history := &memoryHistory{}
	l := NewEventLogger(history, bus.SubscribeAll())
	l.Start()

	pub := NewPublisher(bus)
	sel := sampleSelection()
	pub.Tick(sel)
	pub.AlertChanged(sel)
	pub.Disengaged(sel)
	pub.EngagementRejected(8, *sel.Alert, arbiter.StateDisabled)
	pub.CallbackFailed(9, "speedLimitAdjusting")
	pub.AlertCleared(10, arbiter.StateDisabled)

	assert.Eventually(t, func() bool { return history.len() == 4 }, time.Second, 10*time.Millisecond)

	l.Stop()
	bus.Close()

	history.mu.Lock()
	defer history.mu.Unlock()
	assert.Equal(t, models.EventTypeAlertChanged, history.records[0].Kind)
	assert.False(t, history.records[0].Timestamp.IsZero())
	assert.Equal(t, models.EventTypeAlertCleared, history.records[3].Kind)
}

func TestEventLogger_WriterErrorDoesNotStop(t *testing.T) {
	history := &memoryHistory{err: errors.New("disk full")}
	ch := make(chan *models.Event, 2)
	l := NewEventLogger(history, ch)
	l.Start()

	ch <- models.NewEvent(models.EventTypeAlertCleared, 1, "cleared").
		WithData(Record(models.EventTypeAlertCleared, 1, nil, false, arbiter.StateDisabled))
	close(ch)

	l.Stop()
	assert.Equal(t, 0, history.len())
}
