package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const defaultBufferSize = 1024

// Hub maintains the set of connected notification clients and broadcasts
// engine events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	upgrader   websocket.Upgrader
	logger     *logrus.Logger

	mu    sync.RWMutex
	stats HubStats
}

// HubStats tracks hub activity.
type HubStats struct {
	ConnectedClients int       `json:"connected_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessagesSent     int64     `json:"messages_sent"`
	LastActivity     time.Time `json:"last_activity"`
}

// NewHub creates a notification hub. Buffer sizes apply to the websocket
// upgrader; non-positive values fall back to 1024.
func NewHub(readBufferSize, writeBufferSize int, logger *logrus.Logger) *Hub {
	if readBufferSize <= 0 {
		readBufferSize = defaultBufferSize
	}
	if writeBufferSize <= 0 {
		writeBufferSize = defaultBufferSize
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Run handles client registration and broadcast fan-out. Call in its own
// goroutine.
func (h *Hub) Run() {
	h.logger.Info("Notification hub started")

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Broadcast queues a typed notification for every connected client. Never
// blocks the caller: the engine tick must not wait on slow consumers.
func (h *Hub) Broadcast(msgType string, data map[string]any) {
	msg := Message{Type: msgType, Data: data, Timestamp: time.Now().UTC()}
	select {
	case h.broadcast <- msg.ToJSON():
	default:
		h.logger.WithField("type", msgType).Warn("Notification dropped, broadcast queue full")
	}
}

// Stats returns a copy of the hub statistics.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.stats.TotalConnections++
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"client_id":   client.ID,
		"remote_addr": client.RemoteAddr,
	}).Info("Notification client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.stats.ConnectedClients = len(h.clients)
		h.stats.LastActivity = time.Now()
	}
	h.mu.Unlock()

	h.logger.WithField("client_id", client.ID).Info("Notification client disconnected")
}

func (h *Hub) broadcastMessage(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.mu.Lock()
	h.stats.MessagesSent++
	h.stats.LastActivity = time.Now()
	h.mu.Unlock()

	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			// Send buffer full; drop the client inline. Run is inside this
			// call, so nothing is receiving on unregister right now.
			h.dropClient(client)
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.stats.ConnectedClients = len(h.clients)
		h.stats.LastActivity = time.Now()
	}
	h.mu.Unlock()

	h.logger.WithField("client_id", client.ID).Warn("Notification client dropped, send buffer full")
}
