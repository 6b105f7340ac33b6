package alerts

import (
	"fmt"
	"sort"
)

// Kind tags the log/wire message schema an event family feeds.
type Kind string

// Registry maps event identifiers to their canonical names and back.
type Registry struct {
	kind  Kind
	names []string
	ids   map[string]EventName
}

func NewRegistry(kind Kind, names map[EventName]string) (*Registry, error) {
	if kind == "" {
		return nil, fmt.Errorf("%w: registry kind is required", ErrInvalidMapping)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: registry is empty", ErrInvalidMapping)
	}

	var maxID EventName
	for id := range names {
		if id > maxID {
			maxID = id
		}
	}

	r := &Registry{
		kind:  kind,
		names: make([]string, int(maxID)+1),
		ids:   make(map[string]EventName, len(names)),
	}

	for id, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: event %d has no name", ErrInvalidMapping, id)
		}
		if other, exists := r.ids[name]; exists {
			return nil, fmt.Errorf("%w: name %q used by events %d and %d", ErrInvalidMapping, name, other, id)
		}
		r.names[id] = name
		r.ids[name] = id
	}

	return r, nil
}

func (r *Registry) MessageKind() Kind {
	return r.kind
}

func (r *Registry) Contains(id EventName) bool {
	return int(id) < len(r.names) && r.names[id] != ""
}

func (r *Registry) Name(id EventName) (string, error) {
	if !r.Contains(id) {
		return "", fmt.Errorf("%w: %d", ErrUnknownEvent, id)
	}
	return r.names[id], nil
}

// Lookup is the reverse of Name.
func (r *Registry) Lookup(name string) (EventName, bool) {
	id, ok := r.ids[name]
	return id, ok
}

func (r *Registry) Len() int {
	return len(r.ids)
}

// Cap is one past the highest registered identifier.
func (r *Registry) Cap() int {
	return len(r.names)
}

// IDs returns the registered identifiers in ascending order.
func (r *Registry) IDs() []EventName {
	ids := make([]EventName, 0, len(r.ids))
	for _, id := range r.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
