// Package dashboard exposes the live workflow graph to a read-only
// HTTP dashboard: a last-known snapshot endpoint and an SSE stream of
// updates, fed by a hub that fans a single snapshot out to any number
// of connected browsers. Grounded on the teacher's internal/realtime
// SSE hub (internal/realtime/hub_test.go, internal/realtime/client.go),
// collapsed from per-user channel subscriptions to the dashboard's
// single implicit "snapshot" channel.
package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ubilab-escape/operator/internal/platform/logger"
)

// SSEEvent names the kind of update pushed to dashboard clients. The
// dashboard only ever pushes one kind today; the type is kept (rather
// than collapsing to a bare []byte message) so a future event, e.g. a
// distinct "game-over" push, slots in without a wire-format change.
type SSEEvent string

const (
	SSEEventSnapshot SSEEvent = "snapshot"
)

// SSEMessage is the envelope written to each client's outbound channel.
type SSEMessage struct {
	Event SSEEvent        `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is one connected dashboard browser tab.
type Client struct {
	ID       uuid.UUID
	Outbound chan SSEMessage
	done     chan struct{}
}

// Hub fans the controller's graph snapshots out to every connected
// dashboard client and caches the last one for clients that connect
// between updates.
type Hub struct {
	mu      sync.RWMutex
	log     *logger.Logger
	clients map[*Client]bool
	last    SSEMessage
	hasLast bool
}

// NewHub builds an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:     log.With("component", "DashboardHub"),
		clients: make(map[*Client]bool),
	}
}

// NewClient allocates a client. Callers must AddClient before relying
// on it to receive broadcasts, and must CloseClient when the HTTP
// request returns.
func (h *Hub) NewClient() *Client {
	return &Client{
		ID:       uuid.New(),
		Outbound: make(chan SSEMessage, 8),
		done:     make(chan struct{}),
	}
}

// AddClient registers c to receive future broadcasts, and immediately
// replays the last known snapshot if one has been published.
func (h *Hub) AddClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	if h.hasLast {
		select {
		case c.Outbound <- h.last:
		default:
		}
	}
	h.log.Debug("dashboard client connected", "clientID", c.ID)
}

// RemoveClient unregisters c without closing its channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	h.log.Debug("dashboard client disconnected", "clientID", c.ID)
}

// CloseClient unregisters c and closes its outbound channel and done
// signal, unblocking any ServeHTTP loop still reading from it.
func (h *Hub) CloseClient(c *Client) {
	h.RemoveClient(c)
	close(c.done)
	close(c.Outbound)
}

// Broadcast pushes a new snapshot to every connected client and caches
// it as the last known snapshot. snapshot is the already-marshaled
// graph JSON the controller also publishes to the MQTT gameState topic.
func (h *Hub) Broadcast(snapshot []byte) {
	msg := SSEMessage{Event: SSEEventSnapshot, Data: json.RawMessage(snapshot)}

	h.mu.Lock()
	h.last = msg
	h.hasLast = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		select {
		case c.Outbound <- msg:
		default:
			h.log.Warn("dropping snapshot push; client outbound buffer full", "clientID", c.ID)
		}
	}
}

// Last returns the last broadcast snapshot payload, or nil if none has
// been published yet.
func (h *Hub) Last() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.hasLast {
		return nil
	}
	return []byte(h.last.Data)
}

// ServeHTTP drives one client's SSE connection until the request
// context ends or the hub closes the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping "+strings.Repeat("#", 32)+"\n\n")
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			raw, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("failed to marshal dashboard message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", raw)
			flusher.Flush()
		}
	}
}
