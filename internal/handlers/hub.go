package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// maxMessageSize bounds inbound frames; every client message is a small JSON object.
	maxMessageSize = 4096
	sendBuffer     = 256
)

// client is one player's socket. All writes go through send so the write pump is the
// only writer.
type client struct {
	name string
	conn *websocket.Conn
	send chan []byte
	log  *logrus.Entry
}

func newClient(name string, conn *websocket.Conn, log *logrus.Entry) *client {
	return &client{
		name: name,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  log,
	}
}

// enqueue queues data without blocking; a client that cannot keep up loses messages.
func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		c.log.Warn("send buffer full, dropping message")
	}
}

func (c *client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Error("failed to marshal message")
		return
	}
	c.enqueue(data)
}

// writePump writes queued messages and keeps the connection alive with pings until ctx
// is done or a write fails.
func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}

// hub fans session events out to the connected clients of one game. Session callbacks
// run under the session lock, so the hub only ever takes its own.
type hub struct {
	mu      sync.Mutex
	clients map[string]*client
	log     *logrus.Entry
}

func newHub(log *logrus.Entry) *hub {
	return &hub{
		clients: make(map[string]*client),
		log:     log,
	}
}

// add registers c under its name. It fails if that name already has a live socket.
func (h *hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, taken := h.clients[c.name]; taken {
		return false
	}
	h.clients[c.name] = c
	return true
}

// remove unregisters c unless its name has since been taken by another socket.
func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.name] == c {
		delete(h.clients, c.name)
	}
}

func (h *hub) broadcast(ev game.GameEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).WithField("event", ev.Type).Error("failed to marshal broadcast event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.enqueue(data)
	}
}

func (h *hub) sendTo(name string, ev game.GameEvent) {
	h.mu.Lock()
	c, ok := h.clients[name]
	h.mu.Unlock()
	if !ok {
		return
	}
	c.sendJSON(ev)
}
