package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

// EventBridge turns bus events into websocket messages for the hub.
// Events are discarded unencoded while nobody is connected.
type EventBridge struct {
	hub       *Hub
	events    <-chan *models.Event
	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	forwarded atomic.Uint64
}

func NewEventBridge(hub *Hub, events <-chan *models.Event) *EventBridge {
	return &EventBridge{
		hub:    hub,
		events: events,
		stop:   make(chan struct{}),
	}
}

func (b *EventBridge) Start() {
	b.wg.Add(1)
	go b.run()
}

// Stop returns once the bridge goroutine has exited. Safe to call twice.
func (b *EventBridge) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
	b.wg.Wait()
}

// Forwarded counts messages handed to the hub.
func (b *EventBridge) Forwarded() uint64 {
	return b.forwarded.Load()
}

func (b *EventBridge) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stop:
			return
		case event, ok := <-b.events:
			if !ok {
				logger.Info("Event bus closed, websocket bridge exiting")
				return
			}
			b.forward(event)
		}
	}
}

func (b *EventBridge) forward(event *models.Event) {
	if b.hub.ClientCount() == 0 {
		return
	}

	msg := FromEvent(event)
	if msg == nil {
		return
	}
	data := msg.JSON()
	if data == nil {
		logger.Errorf("Failed to encode websocket %s message", msg.Type)
		return
	}

	b.hub.Broadcast(msg.Type, data)
	b.forwarded.Add(1)
}
