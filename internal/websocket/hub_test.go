package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-ops/facility-backend-go/pkg/logger"
)

func TestMessageToJSON(t *testing.T) {
	ts := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	m := Message{Type: TypeSensorAlert, Data: map[string]any{"zone": "veg"}, Timestamp: ts}

	var decoded Message
	require.NoError(t, json.Unmarshal(m.ToJSON(), &decoded))
	assert.Equal(t, TypeSensorAlert, decoded.Type)
	assert.Equal(t, "veg", decoded.Data["zone"])
	assert.Equal(t, ts, decoded.Timestamp)
}

func TestMessageToJSONFillsTimestamp(t *testing.T) {
	m := Message{Type: TypeRuleTriggered}
	var decoded Message
	require.NoError(t, json.Unmarshal(m.ToJSON(), &decoded))
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestBroadcastNeverBlocks(t *testing.T) {
	// No Run goroutine consuming the queue: the buffered channel fills and
	// further broadcasts must drop instead of stalling.
	hub := NewHub(1024, 1024, logger.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 600; i++ {
			hub.Broadcast(TypeSensorAlert, map[string]any{"i": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a full queue")
	}
}

func TestNewHubBufferSizes(t *testing.T) {
	hub := NewHub(2048, 4096, logger.NewNop())
	assert.Equal(t, 2048, hub.upgrader.ReadBufferSize)
	assert.Equal(t, 4096, hub.upgrader.WriteBufferSize)

	hub = NewHub(0, -1, logger.NewNop())
	assert.Equal(t, 1024, hub.upgrader.ReadBufferSize)
	assert.Equal(t, 1024, hub.upgrader.WriteBufferSize)
}

func TestBroadcastSurvivesStuckClient(t *testing.T) {
	// A client whose send channel is never drained must be dropped inside
	// the fan-out, not re-queued on unregister: the hub goroutine is the
	// only unregister receiver and it is busy broadcasting.
	hub := NewHub(1024, 1024, logger.NewNop())
	go hub.Run()

	stuck := &Client{ID: "stuck", send: make(chan []byte)}
	hub.register <- stuck

	hub.Broadcast(TypeSensorAlert, map[string]any{"n": 1})
	hub.Broadcast(TypeRuleTriggered, map[string]any{"n": 2})

	assert.Eventually(t, func() bool {
		s := hub.Stats()
		return s.MessagesSent == 2 && s.ConnectedClients == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, open := <-stuck.send
	assert.False(t, open)
}

func TestHubBroadcastUpdatesStats(t *testing.T) {
	hub := NewHub(1024, 1024, logger.NewNop())
	go hub.Run()

	hub.Broadcast(TypeDeviceStatusChanged, map[string]any{"id": "d1"})

	assert.Eventually(t, func() bool {
		return hub.Stats().MessagesSent == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Stats().ConnectedClients)
}
