package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/moutai/internal/common"
	"github.com/ternarybob/moutai/internal/services/dashboard"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StateUpdate is the payload of a state_updated message.
type StateUpdate struct {
	Snapshot         dashboard.Snapshot `json:"snapshot"`
	ServerInstanceID string             `json:"serverInstanceId"` // Unique ID per server startup - clients clear state on change
	Timestamp        time.Time          `json:"timestamp"`
}

type WebSocketHandler struct {
	logger           arbor.ILogger
	source           SnapshotSource
	clients          map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	throttler        *rate.Limiter // nil = no throttling
	serverInstanceID string        // Unique ID generated on startup - clients use to detect server restart

	pendingMu      sync.Mutex
	pending        *dashboard.Snapshot
	flushScheduled bool

	flushMu     sync.Mutex // serialises sends
	sentVersion uint64
	sentAny     bool
}

func NewWebSocketHandler(source SnapshotSource, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		source:           source,
		clients:          make(map[*websocket.Conn]*sync.Mutex),
		serverInstanceID: uuid.New().String(),
	}

	if config != nil && config.BroadcastInterval != "" {
		if interval, err := time.ParseDuration(config.BroadcastInterval); err == nil && interval > 0 {
			h.throttler = rate.NewLimiter(rate.Every(interval), 1)
			logger.Debug().
				Str("interval", config.BroadcastInterval).
				Msg("Throttler initialized for state_updated events")
		} else if err != nil {
			logger.Warn().
				Err(err).
				Str("interval", config.BroadcastInterval).
				Msg("Failed to parse broadcast interval - throttler disabled")
		}
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")

	return h
}

// ServerInstanceID returns the ID generated at startup.
func (h *WebSocketHandler) ServerInstanceID() string {
	return h.serverInstanceID
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection, sends the current state and keeps the client registered until it disconnects.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	mutex := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = mutex
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", clientCount).Msg("WebSocket client connected")

	// Send initial state
	if h.source != nil {
		if data, err := h.encodeState(h.source.Snapshot()); err == nil {
			h.write(conn, mutex, data)
		}
	}

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Int("clients", remaining).Msg("WebSocket client disconnected")
	}()

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// BroadcastState queues a snapshot for all clients. Bursts are coalesced by the
// throttler so only the latest snapshot in each interval is sent. A snapshot with
// a lower version than one already queued or sent is dropped.
func (h *WebSocketHandler) BroadcastState(snap dashboard.Snapshot) {
	h.pendingMu.Lock()
	if h.pending != nil && snap.Version < h.pending.Version {
		h.pendingMu.Unlock()
		return
	}
	h.pending = &snap
	if h.flushScheduled {
		h.pendingMu.Unlock()
		return
	}
	h.flushScheduled = true

	var delay time.Duration
	if h.throttler != nil {
		delay = h.throttler.Reserve().Delay()
	}
	h.pendingMu.Unlock()

	if delay <= 0 {
		h.flush()
		return
	}
	time.AfterFunc(delay, h.flush)
}

func (h *WebSocketHandler) flush() {
	h.flushMu.Lock()
	defer h.flushMu.Unlock()

	h.pendingMu.Lock()
	snap := h.pending
	h.pending = nil
	h.flushScheduled = false
	h.pendingMu.Unlock()

	if snap == nil {
		return
	}
	if h.sentAny && snap.Version < h.sentVersion {
		h.logger.Debug().
			Int64("version", int64(snap.Version)).
			Int64("sent_version", int64(h.sentVersion)).
			Msg("Dropping stale state_updated")
		return
	}
	h.sentVersion = snap.Version
	h.sentAny = true

	data, err := h.encodeState(*snap)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn, mutex := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, mutex)
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		h.write(conn, mutexes[i], data)
	}
}

func (h *WebSocketHandler) encodeState(snap dashboard.Snapshot) ([]byte, error) {
	data, err := json.Marshal(WSMessage{
		Type: "state_updated",
		Payload: StateUpdate{
			Snapshot:         snap,
			ServerInstanceID: h.serverInstanceID,
			Timestamp:        time.Now(),
		},
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal state_updated message")
	}
	return data, err
}

func (h *WebSocketHandler) write(conn *websocket.Conn, mutex *sync.Mutex, data []byte) {
	mutex.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteMessage(websocket.TextMessage, data)
	mutex.Unlock()

	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send state_updated to client")
	}
}
