package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/logging"
	"swarmlink-sim/internal/telemetry"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is one message on the websocket stream.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans frames, attack events and briefings out to websocket clients. It
// is a sim writer; Broadcast never blocks the tick loop.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan Event
	mu        sync.Mutex
	// logger of the running context, used by Broadcast on the tick goroutine
	log atomic.Pointer[slog.Logger]
}

// NewHub creates a hub with a bounded broadcast queue.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 256),
	}
	h.log.Store(slog.Default())
	return h
}

// Run delivers queued events until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	h.log.Store(log)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.Close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Error("websocket event encode failed", "type", event.Type, "err", err)
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				if err := write(c, data); err != nil {
					log.Debug("dropping websocket client", "err", err)
					c.Close()
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event, dropping it when the queue is full.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Load().Warn("websocket broadcast channel full, dropping event", "type", event.Type)
	}
}

// WriteFrame implements sim.FrameWriter.
func (h *Hub) WriteFrame(f telemetry.FrameRow) error {
	h.Broadcast(Event{Type: "frame", Payload: f})
	return nil
}

// WriteAttackEvent implements sim.AttackEventWriter.
func (h *Hub) WriteAttackEvent(e telemetry.AttackEventRow) error {
	h.Broadcast(Event{Type: "attack", Payload: e})
	return nil
}

// WriteBriefing implements sim.BriefingWriter.
func (h *Hub) WriteBriefing(st advisory.State) error {
	h.Broadcast(Event{Type: "briefing", Payload: st})
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// register sends initial to conn and adds it to the client set. Holding mu
// keeps the write ordered with Run.
func (h *Hub) register(conn *websocket.Conn, initial Event) error {
	data, err := json.Marshal(initial)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := write(conn, data); err != nil {
		return err
	}
	h.clients[conn] = true
	return nil
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func write(c *websocket.Conn, data []byte) error {
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteMessage(websocket.TextMessage, data)
}
