package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks live websocket connections per user. A user may hold several
// connections (one per device or tab); every one of them receives the user's events.
type Hub struct {
	clients map[int64]map[*Client]struct{}
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	log logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.WithField("component", "notification_hub"),
	}
}

// Run processes registrations until ctx is cancelled, then closes every connection
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	conns, ok := h.clients[client.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[client.userID] = conns
	}
	conns[client] = struct{}{}
	h.mu.Unlock()

	wsConnections.Inc()
	h.log.WithField("user_id", client.userID).Debug("websocket client connected")
}

// removeClient is idempotent; the send channel is closed exactly once under the write lock
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)

	wsConnections.Dec()
	h.log.WithField("user_id", client.userID).Debug("websocket client disconnected")
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conns := range h.clients {
		for client := range conns {
			close(client.send)
			wsConnections.Dec()
		}
		delete(h.clients, userID)
	}
}

// SendToUser writes an event to every live connection of userID and reports how many accepted it.
// Connections whose buffers are full are dropped.
func (h *Hub) SendToUser(userID int64, eventType string, payload interface{}) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	frame, err := json.Marshal(WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal websocket message: %w", err)
	}

	var delivered int
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients[userID] {
		select {
		case client.send <- frame:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.removeClient(client)
	}
	return delivered, nil
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var n int
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// ServeWS upgrades the request and attaches the connection to userID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}

	client := newClient(h, conn, userID)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return fmt.Errorf("notification hub is stopped")
	}

	go client.writePump()
	go client.readPump()
	return nil
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
