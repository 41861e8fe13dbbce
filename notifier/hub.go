package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub keeps the connected cashier displays and broadcasts events to them.
// Events are not buffered: a display that connects late misses them.
type Hub struct {
	clients      map[*websocket.Conn]string // conn -> client label
	mutex        sync.Mutex
	writeTimeout time.Duration
	log          *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients:      make(map[*websocket.Conn]string),
		writeTimeout: 5 * time.Second,
		log:          log,
	}
}

func (h *Hub) Register(conn *websocket.Conn, label string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = label
	h.log.WithFields(logrus.Fields{"client": label, "connected": len(h.clients)}).Info("cashier display connected")
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Send writes one message to a single client, serialised with broadcasts.
func (h *Hub) Send(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.writeLocked(conn, data)
}

// Publish broadcasts topic to every connected display. Clients whose write
// fails are dropped.
func (h *Hub) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(NewMessage(topic, payload))
	if err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, label := range h.clients {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := h.writeLocked(conn, data); err != nil {
			h.log.WithFields(logrus.Fields{"client": label, "event": topic}).WithError(err).Warn("dropping cashier display")
			h.removeLocked(conn)
		}
	}
	h.log.WithFields(logrus.Fields{"event": topic, "clients": len(h.clients)}).Debug("event broadcast")
	return nil
}

func (h *Hub) writeLocked(conn *websocket.Conn, data []byte) error {
	if h.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	if label, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		h.log.WithFields(logrus.Fields{"client": label, "connected": len(h.clients)}).Info("cashier display disconnected")
	}
	conn.Close()
}
