package alerts

import (
	"fmt"

	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// Callback computes an alert from live telemetry. It must not retain the
// snapshot or mutate anything.
type Callback func(snap *models.Snapshot) (Alert, error)

type entryKind uint8

const (
	entryEmpty entryKind = iota
	entryStatic
	entryComputed
)

// Entry is one table slot: either a fixed Alert or a Callback.
type Entry struct {
	kind     entryKind
	alert    Alert
	callback Callback
}

func Static(a Alert) Entry {
	return Entry{kind: entryStatic, alert: a}
}

func Computed(cb Callback) Entry {
	if cb == nil {
		return Entry{}
	}
	return Entry{kind: entryComputed, callback: cb}
}

func (e Entry) IsZero() bool {
	return e.kind == entryEmpty
}

func (e Entry) IsComputed() bool {
	return e.kind == entryComputed
}

// StaticAlert returns the fixed alert of a static entry.
func (e Entry) StaticAlert() (Alert, bool) {
	return e.alert, e.kind == entryStatic
}

// Resolve returns the concrete alert for this tick. Callback errors and
// panics are reported as ErrCallbackEvaluation.
func (e Entry) Resolve(snap *models.Snapshot) (alert Alert, err error) {
	switch e.kind {
	case entryStatic:
		return e.alert, nil
	case entryComputed:
		if snap == nil {
			return Alert{}, fmt.Errorf("%w: no telemetry snapshot", ErrCallbackEvaluation)
		}
		defer func() {
			if r := recover(); r != nil {
				alert = Alert{}
				err = fmt.Errorf("%w: %v", ErrCallbackEvaluation, r)
			}
		}()
		alert, err = e.callback(snap)
		if err != nil {
			return Alert{}, fmt.Errorf("%w: %v", ErrCallbackEvaluation, err)
		}
		if verr := alert.Validate(); verr != nil {
			return Alert{}, fmt.Errorf("%w: %v", ErrCallbackEvaluation, verr)
		}
		return alert, nil
	default:
		return Alert{}, fmt.Errorf("%w: empty entry", ErrCallbackEvaluation)
	}
}
