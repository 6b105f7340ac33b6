package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

var (
	ErrCollectionFailed = errors.New("frame collection failed")
	ErrTimeout          = errors.New("collection timeout")
	ErrInvalidFrame     = errors.New("invalid frame")
	ErrExhausted        = errors.New("frame source exhausted")
	// ErrSourceFailed is terminal: the source cannot produce further frames.
	ErrSourceFailed     = errors.New("frame source failed")
)

// Frame is the input of one control-loop tick.
type Frame struct {
	Number   uint64
	Events   []arbiter.ActiveEvent
	Snapshot *models.Snapshot
	// Engage marks an engagement attempt made on this tick.
	Engage bool
}

// Names lists the identifiers of the frame's events, used as the attempted
// set for an engagement.
func (f *Frame) Names() []alerts.EventName {
	names := make([]alerts.EventName, 0, len(f.Events))
	for _, ev := range f.Events {
		names = append(names, ev.Name)
	}
	return names
}

// Collector produces frames for the control loop.
type Collector interface {
	// Next returns the following frame, or ErrExhausted once a finite
	// source has nothing left.
	Next(ctx context.Context) (*Frame, error)

	// HealthCheck verifies the collector can reach its data source
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the collector
	Close() error
}

type wireEvent struct {
	Name  string             `json:"name,omitempty"`
	ID    *uint16            `json:"id,omitempty"`
	Types []string `json:"types"`
}

type wireSnapshot struct {
	models.Snapshot
	SoftDisableSeconds *float64 `json:"soft_disable_seconds,omitempty"`
}

type wireFrame struct {
	Frame    uint64        `json:"frame"`
	Events   []wireEvent   `json:"events"`
	Snapshot *wireSnapshot `json:"snapshot,omitempty"`
	Engage   bool          `json:"engage,omitempty"`
}

// Decoder turns wire frames into engine input. Events may be named or given
// by raw identifier; event names and context names the registry does not
// know are dropped and logged once, leaving the rest of the frame intact.
type Decoder struct {
	registry     *alerts.Registry
	mu           sync.Mutex
	unknown      map[string]struct{}
	unknownTypes map[string]struct{}
}

func NewDecoder(registry *alerts.Registry) *Decoder {
	return &Decoder{
		registry:     registry,
		unknown:      make(map[string]struct{}),
		unknownTypes: make(map[string]struct{}),
	}
}

func (d *Decoder) Decode(data []byte) (*Frame, error) {
	var wf wireFrame
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	frame := &Frame{
		Number: wf.Frame,
		Events: make([]arbiter.ActiveEvent, 0, len(wf.Events)),
		Engage: wf.Engage,
	}

	for _, ev := range wf.Events {
		var id alerts.EventName
		switch {
		case ev.Name != "":
			resolved, ok := d.registry.Lookup(ev.Name)
			if !ok {
				d.reportUnknown(ev.Name)
				continue
			}
			id = resolved
		case ev.ID != nil:
			id = alerts.EventName(*ev.ID)
		default:
			return nil, fmt.Errorf("%w: event without name or id", ErrInvalidFrame)
		}
		frame.Events = append(frame.Events, arbiter.ActiveEvent{Name: id, Types: d.parseTypes(ev.Types)})
	}

	if wf.Snapshot != nil {
		snap := wf.Snapshot.Snapshot
		if wf.Snapshot.SoftDisableSeconds != nil {
			snap.SoftDisableTime = time.Duration(*wf.Snapshot.SoftDisableSeconds * float64(time.Second))
		}
		frame.Snapshot = &snap
	}

	return frame, nil
}

// Encode is the inverse of Decode, writing event names.
func (d *Decoder) Encode(f *Frame) ([]byte, error) {
	wf := wireFrame{
		Frame:  f.Number,
		Events: make([]wireEvent, 0, len(f.Events)),
		Engage: f.Engage,
	}
	for _, ev := range f.Events {
		name, err := d.registry.Name(ev.Name)
		if err != nil {
			id := uint16(ev.Name)
			wf.Events = append(wf.Events, wireEvent{ID: &id, Types: typeNames(ev.Types)})
			continue
		}
		wf.Events = append(wf.Events, wireEvent{Name: name, Types: typeNames(ev.Types)})
	}
	if f.Snapshot != nil {
		secs := f.Snapshot.SoftDisableTime.Seconds()
		wf.Snapshot = &wireSnapshot{Snapshot: *f.Snapshot, SoftDisableSeconds: &secs}
	}
	return json.Marshal(wf)
}

func (d *Decoder) parseTypes(names []string) []alerts.EventType {
	types := make([]alerts.EventType, 0, len(names))
	for _, name := range names {
		et, err := alerts.ParseEventType(name)
		if err != nil {
			d.reportUnknownType(name)
			continue
		}
		types = append(types, et)
	}
	return types
}

func typeNames(types []alerts.EventType) []string {
	names := make([]string, 0, len(types))
	for _, et := range types {
		if et.Valid() {
			names = append(names, et.String())
		}
	}
	return names
}

func (d *Decoder) reportUnknownType(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, seen := d.unknownTypes[name]; seen {
		return
	}
	d.unknownTypes[name] = struct{}{}
	logger.WithField("context", name).Warn("Dropping unknown event context")
}

func (d *Decoder) reportUnknown(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, seen := d.unknown[name]; seen {
		return
	}
	d.unknown[name] = struct{}{}
	logger.WithEvent(name).Warn("Dropping unknown event name")
}
