package ports

import "github.com/citywatch/incident-api/internal/core/domain"

// Broadcaster fans post-commit mutation events out to all connected clients.
// Delivery is fire-and-forget and at-most-once: calls never block the
// mutation path and never return an error, and a failed delivery is never
// retried. A disconnected client recovers via snapshot fetch on reconnect.
type Broadcaster interface {
	BroadcastNewIncident(inc *domain.Incident)
	BroadcastIncidentUpdate(inc *domain.Incident)
}
