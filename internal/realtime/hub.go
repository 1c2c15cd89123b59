// Package realtime implements the fan-out channel: a websocket hub that
// broadcasts post-commit mutation events to every connected client.
//
// The hub owns no durable state. Delivery is best-effort and at-most-once; a
// client that misses events recovers through a snapshot fetch, never through
// redelivery.
package realtime

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/citywatch/incident-api/internal/api/metrics"
	"github.com/citywatch/incident-api/internal/core/domain"
)

const broadcastBuffer = 256

// Hub maintains the set of connected clients. The Run goroutine is the sole
// owner of the client set, so register/unregister/broadcast need no lock and
// stay safe under concurrent connect and disconnect.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	connected  atomic.Int64
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, broadcastBuffer),
		log:        log,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled. All
// connections are closed on shutdown.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info().Msg("realtime hub started")

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.connected.Store(int64(len(h.clients)))
			metrics.WSConnectedClients.Set(float64(len(h.clients)))
			h.log.Debug().Int("clients", len(h.clients)).Msg("client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.Debug().Int("clients", len(h.clients)).Msg("client disconnected")
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
					metrics.BroadcastsSentTotal.WithLabelValues(msg.Event).Inc()
				default:
					// Slow consumer: drop the connection rather than block
					// the fan-out. The client reconnects and resnapshots.
					metrics.BroadcastsDroppedTotal.Inc()
					h.log.Warn().Msg("dropping slow websocket client")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.connected.Store(int64(len(h.clients)))
	metrics.WSConnectedClients.Set(float64(len(h.clients)))
}

// ClientCount reports how many clients are currently connected.
func (h *Hub) ClientCount() int {
	return int(h.connected.Load())
}

// Broadcast enqueues a message for delivery to every connected client. It
// never blocks: if the hub queue is full the event is counted as dropped and
// discarded.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		metrics.BroadcastsDroppedTotal.Inc()
		h.log.Warn().Str("event", msg.Event).Msg("broadcast queue full, event dropped")
	}
}

// BroadcastNewIncident implements ports.Broadcaster.
func (h *Hub) BroadcastNewIncident(inc *domain.Incident) {
	h.Broadcast(Message{Event: EventNewIncident, Data: inc})
}

// BroadcastIncidentUpdate implements ports.Broadcaster.
func (h *Hub) BroadcastIncidentUpdate(inc *domain.Incident) {
	h.Broadcast(Message{Event: EventUpdateIncident, Data: inc})
}
