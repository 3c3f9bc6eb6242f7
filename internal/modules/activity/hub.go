package activity

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn   *websocket.Conn
	userID int64
	mu     sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// Hub fans activity events out to connected admin sessions.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.RWMutex
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger,
	}
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) *client {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	c := &client{conn: conn, userID: userID}
	h.clients[conn] = c
	return c
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, exists := h.clients[conn]; exists {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

// Publish sends the event to every connection and drops the ones that fail.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	h.mutex.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mutex.RUnlock()

	for _, c := range targets {
		if err := c.writeJSON(event); err != nil {
			h.logger.Warn("activity: dropping connection",
				zap.Int64("user_id", c.userID),
				zap.String("event", event.Type),
				zap.Error(err),
			)
			h.Unregister(c.conn)
		}
	}
}

func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
