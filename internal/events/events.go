package events

import (
	"sync"
	"sync/atomic"

	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/internal/metrics"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

const defaultBufferSize = 100

type subscription struct {
	ch    chan *models.Event
	types map[models.EventType]struct{}
}

func (s *subscription) wants(t models.EventType) bool {
	_, ok := s.types[t]
	return ok
}

// EventBus fans loop outcomes out to subscribers. Publishing never blocks;
// a full subscriber loses the event.
type EventBus struct {
	mu         sync.RWMutex
	subs       []*subscription
	bufferSize int
	closed     bool
	dropped    atomic.Uint64
}

func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &EventBus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving the given event types. The channel
// is closed by Close; subscribing to a closed bus yields a closed channel.
func (b *EventBus) Subscribe(eventTypes ...models.EventType) <-chan *models.Event {
	sub := &subscription{
		ch:    make(chan *models.Event, b.bufferSize),
		types: make(map[models.EventType]struct{}, len(eventTypes)),
	}
	for _, t := range eventTypes {
		sub.types[t] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub.ch
	}
	b.subs = append(b.subs, sub)
	return sub.ch
}

func (b *EventBus) SubscribeAll() <-chan *models.Event {
	return b.Subscribe(AllEventTypes()...)
}

func (b *EventBus) Publish(event *models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			metrics.RecordBusDrop(string(event.Type))
			if event.Type != models.EventTypeTick {
				logger.Warnf("Event channel full, dropping event: %s", event.Type)
			}
		}
	}
}

// Dropped counts deliveries lost to full subscribers.
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}

func AllEventTypes() []models.EventType {
	return []models.EventType{
		models.EventTypeTick,
		models.EventTypeAlertChanged,
		models.EventTypeAlertCleared,
		models.EventTypeEngagementAccepted,
		models.EventTypeEngagementRejected,
		models.EventTypeDisengaged,
		models.EventTypeCallbackFailed,
		models.EventTypeSourceError,
	}
}
