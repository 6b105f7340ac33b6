package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/alert-arbiter/pkg/config"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

func TestNewWebSocketSettings(t *testing.T) {
	s := NewWebSocketSettings(nil)
	assert.Equal(t, 100, s.MaxConnections)
	assert.Less(t, s.PingInterval, s.PongTimeout)

	s = NewWebSocketSettings(&config.WebSocketConfig{
		MaxConnections: 3,
		PingInterval:   time.Minute,
		PongTimeout:    10 * time.Second,
		ClientBuffer:   4,
	})
	assert.Equal(t, 3, s.MaxConnections)
	assert.Equal(t, 9*time.Second, s.PingInterval)
	assert.Equal(t, 4, s.ClientBuffer)
}

func TestFromEvent(t *testing.T) {
	tests := []struct {
		eventType models.EventType
		want      MessageType
	}{
		{models.EventTypeAlertChanged, MessageTypeAlert},
		{models.EventTypeAlertCleared, MessageTypeAlertCleared},
		{models.EventTypeEngagementAccepted, MessageTypeEngagement},
		{models.EventTypeEngagementRejected, MessageTypeEngagement},
		{models.EventTypeDisengaged, MessageTypeDisengaged},
		{models.EventTypeCallbackFailed, MessageTypeError},
		{models.EventTypeSourceError, MessageTypeError},
		{models.EventTypeTick, MessageTypeTick},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			msg := FromEvent(models.NewEvent(tt.eventType, 9, "x"))
			require.NotNil(t, msg)
			assert.Equal(t, tt.want, msg.Type)
			assert.Equal(t, uint64(9), msg.Frame)
			assert.Equal(t, string(tt.eventType), msg.Event)
		})
	}

	assert.Nil(t, FromEvent(models.NewEvent("unknown", 1, "x")))
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.send:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHub_DeliversBySubscription(t *testing.T) {
	hub := NewHub(&config.WebSocketConfig{MaxConnections: 2})
	go hub.Run()
	defer hub.Stop()

	alertsOnly := NewClient(hub, nil, []MessageType{MessageTypeAlert})
	ticks := NewClient(hub, nil, []MessageType{MessageTypeTick})
	require.True(t, hub.Register(alertsOnly))
	require.True(t, hub.Register(ticks))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, time.Millisecond)
	assert.True(t, hub.Full())

	hub.Broadcast(MessageTypeTick, []byte("tick"))
	hub.Broadcast(MessageTypeAlert, []byte("alert"))

	assert.Equal(t, "alert", string(recv(t, alertsOnly)))
	assert.Equal(t, "tick", string(recv(t, ticks)))

	hub.Unregister(ticks)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)
	_, open := <-ticks.send
	assert.False(t, open)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	c := NewClient(hub, nil, nil)
	require.True(t, hub.Register(c))

	hub.Stop()
	_, open := <-c.send
	assert.False(t, open)
	assert.False(t, hub.Register(NewClient(hub, nil, nil)))
}

func TestClient_Subscribe(t *testing.T) {
	hub := NewHub(nil)
	c := NewClient(hub, nil, nil)

	assert.True(t, c.Wants(MessageTypeAlert))
	assert.False(t, c.Wants(MessageTypeTick))

	c.handleMessage(&IncomingMessage{Type: "subscribe", Types: []MessageType{MessageTypeTick}})
	assert.True(t, c.Wants(MessageTypeTick))
	assert.False(t, c.Wants(MessageTypeAlert))

	var msg struct {
		Type MessageType            `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(<-c.send, &msg))
	assert.Equal(t, MessageTypeSubscription, msg.Type)
	assert.Equal(t, "subscribed", msg.Data["action"])
	assert.Equal(t, []interface{}{"tick"}, msg.Data["types"])

	c.handleMessage(&IncomingMessage{Type: "unsubscribe"})
	assert.False(t, c.Wants(MessageTypeTick))
	assert.True(t, c.Wants(MessageTypeCurrent))
}

func TestEventBridge_ForwardsOnlyWithClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	bus := make(chan *models.Event, 4)
	bridge := NewEventBridge(hub, bus)
	bridge.Start()

	bus <- models.NewEvent(models.EventTypeAlertCleared, 3, "cleared")
	assert.Never(t, func() bool { return bridge.Forwarded() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	c := NewClient(hub, nil, nil)
	require.True(t, hub.Register(c))
	bus <- models.NewEvent(models.EventTypeAlertCleared, 4, "cleared")

	var msg OutgoingMessage
	require.NoError(t, json.Unmarshal(recv(t, c), &msg))
	assert.Equal(t, MessageTypeAlertCleared, msg.Type)
	assert.Equal(t, uint64(4), msg.Frame)

	close(bus)
	bridge.Stop()
	bridge.Stop()
	assert.Equal(t, uint64(1), bridge.Forwarded())
}
