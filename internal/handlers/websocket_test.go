package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/common"
)

type stateMessage struct {
	Type    string `json:"type"`
	Payload struct {
		Snapshot struct {
			Version uint64 `json:"version"`
			State   struct {
				CurrentPrice float64 `json:"currentPrice"`
			} `json:"state"`
			Error string `json:"error"`
		} `json:"snapshot"`
		ServerInstanceID string `json:"serverInstanceId"`
	} `json:"payload"`
}

func dialWebSocket(t *testing.T, h *WebSocketHandler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func readState(t *testing.T, conn *websocket.Conn) stateMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg stateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketSendsInitialState(t *testing.T) {
	dash := new(MockDashboard)
	dash.On("Snapshot").Return(loadedSnapshot())
	h := NewWebSocketHandler(dash, arbor.NewLogger(), &common.WebSocketConfig{})

	conn, cleanup := dialWebSocket(t, h)
	defer cleanup()

	msg := readState(t, conn)
	assert.Equal(t, "state_updated", msg.Type)
	assert.Equal(t, 1500.0, msg.Payload.Snapshot.State.CurrentPrice)
	assert.Equal(t, h.ServerInstanceID(), msg.Payload.ServerInstanceID)
	assert.NotEmpty(t, msg.Payload.ServerInstanceID)
}

func TestWebSocketBroadcastFanOut(t *testing.T) {
	dash := new(MockDashboard)
	dash.On("Snapshot").Return(loadedSnapshot())
	h := NewWebSocketHandler(dash, arbor.NewLogger(), &common.WebSocketConfig{})

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()
		conns[i] = conn
		readState(t, conn)
	}
	require.Eventually(t, func() bool { return h.ClientCount() == 3 }, time.Second, 5*time.Millisecond)

	snap := loadedSnapshot()
	snap.Error = "Calibration failed: retrieved data is incomplete."
	h.BroadcastState(snap)

	for _, conn := range conns {
		msg := readState(t, conn)
		assert.Equal(t, snap.Error, msg.Payload.Snapshot.Error)
	}
}

func TestWebSocketThrottleCoalescesBursts(t *testing.T) {
	dash := new(MockDashboard)
	dash.On("Snapshot").Return(loadedSnapshot())
	h := NewWebSocketHandler(dash, arbor.NewLogger(), &common.WebSocketConfig{BroadcastInterval: "200ms"})

	conn, cleanup := dialWebSocket(t, h)
	defer cleanup()
	readState(t, conn)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	for i := 1; i <= 5; i++ {
		snap := loadedSnapshot()
		snap.State.CurrentPrice = float64(1500 + i)
		h.BroadcastState(snap)
	}

	// First broadcast passes straight through; the rest collapse into the latest.
	first := readState(t, conn)
	assert.Equal(t, 1501.0, first.Payload.Snapshot.State.CurrentPrice)

	last := readState(t, conn)
	assert.Equal(t, 1505.0, last.Payload.Snapshot.State.CurrentPrice)
}

func TestWebSocketDropsStaleSnapshots(t *testing.T) {
	dash := new(MockDashboard)
	dash.On("Snapshot").Return(loadedSnapshot())
	h := NewWebSocketHandler(dash, arbor.NewLogger(), nil)

	conn, cleanup := dialWebSocket(t, h)
	defer cleanup()
	readState(t, conn)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	for _, version := range []uint64{5, 3, 6} {
		snap := loadedSnapshot()
		snap.Version = version
		snap.State.CurrentPrice = float64(1500 + version)
		h.BroadcastState(snap)
	}

	first := readState(t, conn)
	assert.Equal(t, uint64(5), first.Payload.Snapshot.Version)

	second := readState(t, conn)
	assert.Equal(t, uint64(6), second.Payload.Snapshot.Version)
	assert.Equal(t, 1506.0, second.Payload.Snapshot.State.CurrentPrice)
}

func TestWebSocketClientDisconnect(t *testing.T) {
	dash := new(MockDashboard)
	dash.On("Snapshot").Return(loadedSnapshot())
	h := NewWebSocketHandler(dash, arbor.NewLogger(), nil)

	conn, cleanup := dialWebSocket(t, h)
	defer cleanup()
	readState(t, conn)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
