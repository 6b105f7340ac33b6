package websocket

import (
	"sync"

	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/pkg/config"
)

const defaultBroadcastBuffer = 256

type broadcast struct {
	msgType MessageType
	data    []byte
}

// Hub owns the connected clients and routes broadcasts by message type.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan broadcast
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	settings   *WebSocketSettings
}

func NewHub(cfg *config.WebSocketConfig) *Hub {
	settings := NewWebSocketSettings(cfg)

	broadcastBuffer := defaultBroadcastBuffer
	if cfg != nil && cfg.BroadcastBuffer > 0 {
		broadcastBuffer = cfg.BroadcastBuffer
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcast, broadcastBuffer),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		settings:   settings,
	}
}

// Run delivers broadcasts and removals until Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.unregister:
			h.remove(client)
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg broadcast) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		if !client.Wants(msg.msgType) {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		logger.Warn("WebSocket client too slow, disconnecting")
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Broadcast queues a message for every client subscribed to msgType.
func (h *Hub) Broadcast(msgType MessageType, message []byte) {
	select {
	case h.broadcast <- broadcast{msgType: msgType, data: message}:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Full reports whether the connection cap is reached.
func (h *Hub) Full() bool {
	return h.ClientCount() >= h.settings.MaxConnections
}

func (h *Hub) Settings() *WebSocketSettings {
	return h.settings
}

// Register adds client immediately so it sees every later broadcast. It
// returns false once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	select {
	case <-h.stop:
		h.mu.Unlock()
		return false
	default:
	}
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	logger.Infof("WebSocket client connected (total: %d)", total)
	return true
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}
