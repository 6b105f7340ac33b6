package alerts

import (
	"errors"
	"fmt"
)

// Mapping is the declarative form of the table: event -> context -> entry.
type Mapping map[EventName]map[EventType]Entry

type slots [numEventTypes]Entry

// Table resolves (event, context) pairs to alert entries. It is immutable
// once built.
type Table struct {
	registry *Registry
	entries  []slots
}

// NewTable validates mapping against the registry and freezes it.
func NewTable(registry *Registry, mapping Mapping) (*Table, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrInvalidMapping)
	}

	var errs []error
	entries := make([]slots, registry.Cap())

	for id, contexts := range mapping {
		name, err := registry.Name(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: event %d is not registered", ErrInvalidMapping, id))
			continue
		}
		if len(contexts) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s has no contexts", ErrInvalidMapping, name))
			continue
		}

		for et, entry := range contexts {
			if !et.Valid() {
				errs = append(errs, fmt.Errorf("%w: %s has invalid context %d", ErrInvalidMapping, name, uint8(et)))
				continue
			}
			if entry.IsZero() {
				errs = append(errs, fmt.Errorf("%w: %s/%s is empty", ErrInvalidMapping, name, et))
				continue
			}
			if a, ok := entry.StaticAlert(); ok {
				if err := a.Validate(); err != nil {
					errs = append(errs, fmt.Errorf("%w: %s/%s: %v", ErrInvalidMapping, name, et, err))
					continue
				}
			}
			entries[id][et] = entry
		}
	}

	for _, id := range registry.IDs() {
		if _, ok := mapping[id]; !ok {
			name, _ := registry.Name(id)
			errs = append(errs, fmt.Errorf("%w: %s has no alerts", ErrInvalidMapping, name))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Table{registry: registry, entries: entries}, nil
}

func (t *Table) Registry() *Registry {
	return t.registry
}

// Lookup returns false when the event defines no alert for the context,
// which is the common case.
func (t *Table) Lookup(id EventName, et EventType) (Entry, bool) {
	if int(id) >= len(t.entries) || !et.Valid() {
		return Entry{}, false
	}
	entry := t.entries[id][et]
	return entry, !entry.IsZero()
}

// Types lists the contexts defined for an event in ordinal order.
func (t *Table) Types(id EventName) []EventType {
	if int(id) >= len(t.entries) {
		return nil
	}
	var types []EventType
	for et := EventType(0); et < numEventTypes; et++ {
		if !t.entries[id][et].IsZero() {
			types = append(types, et)
		}
	}
	return types
}
