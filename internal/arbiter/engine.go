package arbiter

import (
	"time"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// Config tunes an Engine. Zero values take the defaults applied by New.
type Config struct {
	// TickPeriod converts frame counts to time for creation delays and
	// latch durations.
	TickPeriod time.Duration
	// MaxCandidates pre-sizes the candidate buffer. Zero sizes it for every
	// (event, context) pair of the table.
	MaxCandidates int
}

type latch struct {
	candidate  *Candidate
	lastActive uint64
}

// Engine selects one alert per control-loop frame. It is not safe for
// concurrent use; a single loop owns it.
type Engine struct {
	config   Config
	table    *alerts.Table
	registry *alerts.Registry

	counters []int
	// seenAt is the last frame each event was reported in, valid when seen
	// is set. firstActive starts the current run of consecutive frames.
	seen        []bool
	seenAt      []uint64
	firstActive []uint64
	masks       []uint16
	// failMask marks contexts whose callback failure was already reported
	// in the current run.
	failMask []uint16

	names      []string
	alertTypes []string

	candidates []Candidate
	failures   []alerts.EventName
	unknown    map[alerts.EventName]struct{}

	latch   latch
	state   EngagementState
	last    Selection
	started bool
}

// New builds an engine over an immutable table, starting disabled with a
// 10ms tick unless cfg says otherwise.
func New(table *alerts.Table, cfg Config) *Engine {
	if cfg.TickPeriod == 0 {
		cfg.TickPeriod = 10 * time.Millisecond
	}

	registry := table.Registry()
	size := registry.Cap()
	if cfg.MaxCandidates == 0 {
		cfg.MaxCandidates = size * alerts.NumEventTypes
	}

	e := &Engine{
		config:     cfg,
		table:      table,
		registry:   registry,
		counters:    make([]int, size),
		seen:        make([]bool, size),
		seenAt:      make([]uint64, size),
		firstActive: make([]uint64, size),
		masks:       make([]uint16, size),
		failMask:    make([]uint16, size),
		names:       make([]string, size),
		alertTypes:  make([]string, size*alerts.NumEventTypes),
		candidates:  make([]Candidate, 0, cfg.MaxCandidates),
		failures:    make([]alerts.EventName, 0, size),
		unknown:     make(map[alerts.EventName]struct{}),
		state:       StateDisabled,
	}

	for _, id := range registry.IDs() {
		name, _ := registry.Name(id)
		e.names[id] = name
		for _, et := range table.Types(id) {
			e.alertTypes[int(id)*alerts.NumEventTypes+int(et)] = name + "/" + et.String()
		}
	}

	return e
}

// Arbitrate runs one frame. Repeating a frame number, or passing an older
// one, returns the previous result unchanged. Event runs are counted on
// frame numbers, so a skipped frame number breaks a run.
func (e *Engine) Arbitrate(frame uint64, active []ActiveEvent, snap *models.Snapshot) Selection {
	if e.started && frame <= e.last.Frame {
		if frame < e.last.Frame {
			logger.WithFrame(frame).Debugf("Stale frame, last arbitrated %d", e.last.Frame)
		}
		return e.last
	}

	unknown := 0

	for _, ev := range active {
		if !e.registry.Contains(ev.Name) {
			e.reportUnknown(ev.Name, frame)
			unknown++
			continue
		}
		if !e.reportedIn(ev.Name, frame) {
			id := ev.Name
			if !e.seen[id] || e.seenAt[id]+1 != frame {
				e.firstActive[id] = frame
			}
			e.seen[id] = true
			e.seenAt[id] = frame
			e.masks[id] = 0
		}
		for _, et := range ev.Types {
			if et.Valid() {
				e.masks[ev.Name] |= 1 << et
			}
		}
	}

	for id := range e.counters {
		if e.reportedIn(alerts.EventName(id), frame) {
			e.counters[id] = int(frame - e.firstActive[id] + 1)
		} else {
			e.counters[id] = 0
			e.failMask[id] = 0
		}
	}

	e.candidates = e.candidates[:0]
	e.failures = e.failures[:0]
	suppressed := 0
	var disable, userDisable, softDisable bool

	for id := range e.counters {
		name := alerts.EventName(id)
		if !e.reportedIn(name, frame) {
			continue
		}
		e.failMask[id] &= e.masks[id]

		for et := alerts.EventType(0); int(et) < alerts.NumEventTypes; et++ {
			if e.masks[id]&(1<<et) == 0 || et == alerts.NoEntry {
				continue
			}
			entry, ok := e.table.Lookup(name, et)
			if !ok {
				continue
			}

			c, err := e.resolve(name, et, entry, snap)
			bit := uint16(1) << et
			switch {
			case err == nil:
				e.failMask[id] &^= bit
			case e.failMask[id]&bit == 0:
				e.failMask[id] |= bit
				e.failures = append(e.failures, name)
				logger.WithFrame(frame).WithField("alert_type", c.AlertType).
					Warnf("Alert callback failed, showing fallback: %v", err)
			}

			switch {
			case c.Fallback || et == alerts.ImmediateDisable:
				disable = true
			case et == alerts.UserDisable:
				userDisable = true
			case et == alerts.SoftDisable:
				softDisable = true
			}

			if !c.Fallback && et != alerts.ImmediateDisable && e.elapsed(id) < c.Alert.CreationDelay {
				suppressed++
				continue
			}
			e.insert(c)
		}
	}

	sel := Selection{
		Frame:      frame,
		Candidates: e.candidates,
		Suppressed: suppressed,
		Failures:   e.failures,
		Unknown:    unknown,
	}

	e.selectAlert(&sel, frame)
	e.updateEngagement(&sel, frame, snap, disable, userDisable, softDisable)

	e.last = sel
	e.started = true
	return sel
}

// resolve never fails to produce a candidate; on a callback error it is the
// fallback alert.
func (e *Engine) resolve(name alerts.EventName, et alerts.EventType, entry alerts.Entry, snap *models.Snapshot) (Candidate, error) {
	c := Candidate{
		Event:     name,
		EventName: e.names[name],
		Type:      et,
		AlertType: e.alertTypes[int(name)*alerts.NumEventTypes+int(et)],
	}

	alert, err := entry.Resolve(snap)
	if err != nil {
		c.Alert = alerts.ControlsMismatchAlert()
		c.Fallback = true
		return c, err
	}

	c.Alert = alert
	return c, nil
}

// insert keeps candidates ordered best first without allocating.
func (e *Engine) insert(c Candidate) {
	e.candidates = append(e.candidates, c)
	i := len(e.candidates) - 1
	for i > 0 && e.candidates[i].outranks(&e.candidates[i-1]) {
		e.candidates[i], e.candidates[i-1] = e.candidates[i-1], e.candidates[i]
		i--
	}
}

func (e *Engine) selectAlert(sel *Selection, frame uint64) {
	var best *Candidate
	if len(e.candidates) > 0 {
		best = &e.candidates[0]
	}

	prev := e.latch.candidate
	if prev != nil && !e.reported(prev.Event, prev.Type, frame) &&
		frame-e.latch.lastActive <= e.holdFrames(prev.Alert.Duration) &&
		(best == nil || best.Alert.Priority <= prev.Alert.Priority) {
		sel.Alert = prev
		sel.Latched = true
		return
	}

	if best == nil {
		e.latch = latch{}
		return
	}

	// Hand out a fresh pointer only when the shown alert changes, so a
	// returned Alert is never rewritten by later frames.
	if prev == nil || *prev != *best {
		shown := *best
		prev = &shown
	}
	e.latch = latch{candidate: prev, lastActive: frame}
	sel.Alert = prev
}

func (e *Engine) updateEngagement(sel *Selection, frame uint64, snap *models.Snapshot, disable, userDisable, softDisable bool) {
	before := e.state

	switch {
	case disable || userDisable:
		e.state = StateDisabled
	case softDisable && e.state == StateEnabled:
		e.state = StateSoftDisabling
	case e.state == StateSoftDisabling && !softDisable:
		e.state = StateEnabled
	}

	if e.state == StateSoftDisabling && snap != nil && snap.SoftDisableTime <= 0 {
		e.state = StateDisabled
	}

	sel.State = e.state
	sel.Disengaged = before != StateDisabled && e.state == StateDisabled
	if sel.Disengaged {
		logger.WithFrame(frame).Infof("Disengaged (was %s)", before)
	}
}

func (e *Engine) reportedIn(id alerts.EventName, frame uint64) bool {
	return e.seen[id] && e.seenAt[id] == frame
}

func (e *Engine) reported(id alerts.EventName, et alerts.EventType, frame uint64) bool {
	return e.reportedIn(id, frame) && e.masks[id]&(1<<et) != 0
}

func (e *Engine) elapsed(id int) time.Duration {
	return time.Duration(e.counters[id]) * e.config.TickPeriod
}

func (e *Engine) holdFrames(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	tick := e.config.TickPeriod
	return uint64((d + tick - 1) / tick)
}

func (e *Engine) reportUnknown(id alerts.EventName, frame uint64) {
	if _, seen := e.unknown[id]; seen {
		return
	}
	e.unknown[id] = struct{}{}
	logger.WithFrame(frame).WithField("event_id", uint16(id)).Warn("Ignoring unknown event")
}

// EventName resolves an identifier to its canonical name.
func (e *Engine) EventName(id alerts.EventName) (string, error) {
	return e.registry.Name(id)
}

// EventMessageKind is the registry's message kind, for logging.
func (e *Engine) EventMessageKind() alerts.Kind {
	return e.registry.MessageKind()
}

// Counter returns the consecutive active frames of an event, or 0 for
// unknown identifiers.
func (e *Engine) Counter(id alerts.EventName) int {
	if int(id) >= len(e.counters) {
		return 0
	}
	return e.counters[id]
}

// State is the engagement state after the last frame or engagement call.
func (e *Engine) State() EngagementState {
	return e.state
}

// Config returns the effective configuration, defaults included.
func (e *Engine) Config() Config {
	return e.config
}

// Table is the alert table the engine was built with.
func (e *Engine) Table() *alerts.Table {
	return e.table
}
