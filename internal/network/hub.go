// Package network exposes the simulation over WebSocket: a Hub fans
// game events out to every connected client, and each client drives
// the simulation through a small command vocabulary.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/trg-labs/retro-factory/server/internal/engine"
	"github.com/trg-labs/retro-factory/server/internal/events"
	"github.com/trg-labs/retro-factory/server/internal/infra/storage"
	"github.com/trg-labs/retro-factory/server/internal/platform/logger"
	"github.com/trg-labs/retro-factory/server/internal/platform/metrics"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex

	sim    *engine.Simulation
	saves  *storage.SaveStore
	logger *logger.Logger

	maxClients int
}

// NewHub initializes a new WebSocket Hub bound to one simulation.
func NewHub(sim *engine.Simulation, saves *storage.SaveStore, log *logger.Logger, broadcastBuffer, maxClients int) *Hub {
	if broadcastBuffer < 0 {
		broadcastBuffer = 0
	}
	return &Hub{
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		sim:        sim,
		saves:      saves,
		logger:     log,
		maxClients: maxClients,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("websocket hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("websocket client connected", "session", client.sessionID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("websocket client disconnected", "session", client.sessionID)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.Get().RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// AtCapacity reports whether the configured client limit has been reached.
// A limit of zero means unlimited.
func (h *Hub) AtCapacity() bool {
	if h.maxClients <= 0 {
		return false
	}
	return h.ClientCount() >= h.maxClients
}

// BroadcastEvent serializes a GameEvent and sends it to all connected clients.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to serialize event for broadcast", "error", err)
		return
	}
	h.broadcast <- payload
}

// StartEventPoller spawns a goroutine that polls the EventLog and pushes
// new events to the Hub. The Hub stays decoupled from the engine's tick loop
// while still surfacing every event it records.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		poll := time.NewTicker(200 * time.Millisecond)
		defer poll.Stop()

		lastProcessed := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
				all := eventLog.Replay()
				if len(all) > lastProcessed {
					for _, event := range all[lastProcessed:] {
						h.BroadcastEvent(event)
					}
					lastProcessed = len(all)
				}
			}
		}
	}()
}
