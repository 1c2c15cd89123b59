// Package metrics defines and registers all custom Prometheus metrics for
// the CityWatch incident API. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "citywatch"

// --- Incident metrics ---

// IncidentsCreatedTotal counts newly reported incidents.
// Label:
//   - category: "General", "Sanitation", "Infrastructure", "Traffic", "Water"
var IncidentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "incidents_created_total",
		Help:      "Total number of incidents created, by category.",
	},
	[]string{"category"},
)

// IncidentMutationsTotal counts committed mutations on existing incidents.
// Label:
//   - action: "status_update", "upvote", "delete"
var IncidentMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "incident_mutations_total",
		Help:      "Total number of committed incident mutations, by action.",
	},
	[]string{"action"},
)

// --- Realtime metrics ---

// WSConnectedClients tracks the number of currently connected feed clients.
var WSConnectedClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connected_clients",
		Help:      "Current number of connected websocket feed clients.",
	},
)

// BroadcastsSentTotal counts events handed to client send buffers.
// Label:
//   - event: "new_incident" or "update_incident"
var BroadcastsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcasts_sent_total",
		Help:      "Total number of realtime events delivered to client buffers.",
	},
	[]string{"event"},
)

// BroadcastsDroppedTotal counts deliveries dropped because a client's send
// buffer was full or the hub's broadcast queue overflowed. Dropped events are
// not retried; clients recover via snapshot fetch.
var BroadcastsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcasts_dropped_total",
		Help:      "Total number of realtime event deliveries dropped.",
	},
)
