package notifier

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin:       func(*http.Request) bool { return true },
	EnableCompression: true,
}

const (
	pingInterval = 45 * time.Second
	readTimeout  = 90 * time.Second
	clientBuffer = 256
)

// Client is one connected dashboard.
type Client struct {
	conn *websocket.Conn
	out  chan any
	done chan struct{}
}

// Send queues v for this client. Slow clients drop messages instead of
// blocking the replay.
func (c *Client) Send(v any) bool {
	select {
	case c.out <- v:
		return true
	default:
		return false
	}
}

// ControlHandler is called for each control message a client sends.
type ControlHandler func(c *Client, ctrl ControlMsg)

// Hub fans replay events out to every connected dashboard.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	// OnConnect, when set, returns the messages a new client receives first.
	// It runs under the hub lock and must not call Broadcast.
	OnConnect func() []any
	// OnClients, when set, is called with the client count after each change.
	OnClients func(n int)
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Clients returns the number of connected dashboards.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues v for every client.
func (h *Hub) Broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.Send(v)
	}
}

// ServeWS upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeWS(onControl ControlHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WARN] websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		cl := &Client{conn: conn, out: make(chan any, clientBuffer), done: make(chan struct{})}
		go cl.writeLoop()

		// The greeting is built and queued under the write lock, so a
		// concurrent Broadcast lands either inside it or after it.
		h.mu.Lock()
		cl.Send(Status(LevelInfo, "Connected"))
		if h.OnConnect != nil {
			for _, m := range h.OnConnect() {
				cl.Send(m)
			}
		}
		h.clients[cl] = struct{}{}
		n := len(h.clients)
		h.mu.Unlock()
		h.clientsChanged(n)
		log.Printf("[INFO] dashboard connected from %s (%d clients)", r.RemoteAddr, n)

		cl.readLoop(onControl)

		close(cl.done)
		h.mu.Lock()
		delete(h.clients, cl)
		n = len(h.clients)
		h.mu.Unlock()
		h.clientsChanged(n)
		log.Printf("[INFO] dashboard disconnected from %s (%d clients)", r.RemoteAddr, n)
	}
}

func (h *Hub) clientsChanged(n int) {
	if h.OnClients != nil {
		h.OnClients(n)
	}
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case v := <-c.out:
			if err := c.conn.WriteJSON(v); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.WriteMessage(websocket.PingMessage, nil)
		case <-c.done:
			return
		}
	}
}

func (c *Client) readLoop(onControl ControlHandler) {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var ctrl ControlMsg
		if err := json.Unmarshal(data, &ctrl); err != nil || ctrl.Type != TypeControl {
			c.Send(Status(LevelWarning, "Unrecognized message"))
			continue
		}
		ctrl.Action = strings.ToLower(strings.TrimSpace(ctrl.Action))
		if onControl != nil {
			onControl(c, ctrl)
		}
	}
}
