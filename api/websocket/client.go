package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/OldStager01/alert-arbiter/internal/logger"
)

// defaultTypes are what a client receives before subscribing explicitly.
// Ticks are opt-in.
var defaultTypes = []MessageType{
	MessageTypeAlert,
	MessageTypeAlertCleared,
	MessageTypeEngagement,
	MessageTypeDisengaged,
	MessageTypeError,
}

var subscribable = append(append([]MessageType(nil), defaultTypes...), MessageTypeTick)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	settings *WebSocketSettings

	mu    sync.RWMutex
	types map[MessageType]bool
}

type IncomingMessage struct {
	Type  string        `json:"type"`
	Types []MessageType `json:"types,omitempty"`
}

func NewClient(hub *Hub, conn *websocket.Conn, types []MessageType) *Client {
	if len(types) == 0 {
		types = defaultTypes
	}
	c := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.settings.ClientBuffer),
		settings: hub.settings,
		types:    make(map[MessageType]bool),
	}
	c.setTypes(types)
	return c
}

func (c *Client) setTypes(types []MessageType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = make(map[MessageType]bool, len(types))
	for _, t := range types {
		c.types[t] = true
	}
}

// Wants reports whether the client subscribed to msgType.
func (c *Client) Wants(msgType MessageType) bool {
	if msgType == MessageTypeSubscription || msgType == MessageTypeCurrent {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.types[msgType]
}

func (c *Client) subscribed() []MessageType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]MessageType, 0, len(c.types))
	for _, t := range subscribable {
		if c.types[t] {
			out = append(out, t)
		}
	}
	return out
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.settings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.settings.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.settings.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.settings.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		if len(msg.Types) == 0 {
			return
		}
		c.setTypes(msg.Types)
		c.sendConfirmation("subscribed")
	case "unsubscribe":
		c.setTypes(nil)
		c.sendConfirmation("unsubscribed")
	}
}

func (c *Client) sendConfirmation(action string) {
	msg := NewMessage(MessageTypeSubscription, 0, map[string]interface{}{
		"action": action,
		"types":  c.subscribed(),
	})
	select {
	case c.send <- msg.JSON():
	default:
		logger.Warn("Client send channel full, dropping confirmation")
	}
}

// ServeWebSocket upgrades the request and streams bus events. greet, when
// set, provides the first message sent to the client.
func ServeWebSocket(hub *Hub, greet func() *OutgoingMessage) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  hub.settings.ReadBufferSize,
		WriteBufferSize: hub.settings.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(c *gin.Context) {
		if hub.Full() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many websocket connections"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		var types []MessageType
		for _, t := range c.QueryArray("type") {
			types = append(types, MessageType(t))
		}

		client := NewClient(hub, conn, types)
		if greet != nil {
			if msg := greet(); msg != nil {
				client.send <- msg.JSON()
			}
		}
		if !hub.Register(client) {
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
