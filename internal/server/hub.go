package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// CountMessage is pushed to badge clients after every queue change.
type CountMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Hub broadcasts the queue count to connected websocket clients. It
// implements queue.Notifier.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
	h.SetOriginPolicy(nil)
	return h
}

// SetOriginPolicy sets which origins may open a badge stream. A nil policy
// allows only same-origin and origin-less clients. Call it before serving.
func (h *Hub) SetOriginPolicy(p *OriginPolicy) {
	if p == nil {
		p = NewOriginPolicy(nil)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     p.Allow,
	}
}

// NotifyCount sends the count to every client without blocking. A client
// whose buffer is full is dropped.
func (h *Hub) NotifyCount(count int) {
	message, err := json.Marshal(CountMessage{Type: "count", Count: count})
	if err != nil {
		h.logger.Error("failed to encode count message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = message
	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			h.logger.Warn("dropping slow badge client", "remote", c.conn.RemoteAddr().String())
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams count messages until the client
// goes away or ctx is canceled. The latest count is sent on connect.
func (h *Hub) ServeWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "expected websocket upgrade", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("badge client connected", "remote", r.RemoteAddr, "clients", total)

	go h.readPump(c)
	h.writePump(ctx, c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// removeLocked closes c's send channel once. Callers must hold mu.
func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("badge client disconnected", "clients", total)
}

// readPump discards inbound messages and keeps the pong deadline fresh.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		case <-ctx.Done():
			h.remove(c)
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
