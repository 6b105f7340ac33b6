package websocket

import (
	"time"

	"github.com/OldStager01/alert-arbiter/pkg/config"
)

type WebSocketSettings struct {
	MaxConnections  int
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	ClientBuffer    int
}

func NewWebSocketSettings(cfg *config.WebSocketConfig) *WebSocketSettings {
	s := &WebSocketSettings{
		MaxConnections:  100,
		PingInterval:    54 * time.Second,
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
		MaxMessageSize:  512,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		ClientBuffer:    256,
	}
	if cfg == nil {
		return s
	}

	if cfg.MaxConnections > 0 {
		s.MaxConnections = cfg.MaxConnections
	}
	if cfg.PongTimeout > 0 {
		s.PongTimeout = cfg.PongTimeout
	}
	if cfg.PingInterval > 0 {
		s.PingInterval = cfg.PingInterval
	}
	// pings must beat the pong deadline
	if s.PingInterval >= s.PongTimeout {
		s.PingInterval = s.PongTimeout * 9 / 10
	}
	if cfg.WriteTimeout > 0 {
		s.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.MaxMessageSize > 0 {
		s.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.ReadBufferSize > 0 {
		s.ReadBufferSize = cfg.ReadBufferSize
	}
	if cfg.WriteBufferSize > 0 {
		s.WriteBufferSize = cfg.WriteBufferSize
	}
	if cfg.ClientBuffer > 0 {
		s.ClientBuffer = cfg.ClientBuffer
	}
	return s
}
