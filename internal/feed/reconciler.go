// Package feed merges realtime events and REST snapshot fetches into one
// consistent, de-duplicated, recency-ordered incident view per client.
//
// The subscription and the initial snapshot race with no defined ordering.
// There is no lock across the two sources; the idempotent merge below is what
// makes that interleaving safe.
package feed

import (
	"sync"

	"github.com/citywatch/incident-api/internal/core/domain"
	"github.com/citywatch/incident-api/internal/realtime"
)

// AnonymousName replaces the reporter's username when the anonymity flag is
// set. The server always sends the true identity; hiding it is this layer's
// job.
const AnonymousName = "Anonymous"

// Reconciler holds the local incident sequence. Safe for concurrent use.
type Reconciler struct {
	mu    sync.Mutex
	order []string
	byID  map[string]domain.Incident
}

func NewReconciler() *Reconciler {
	return &Reconciler{byID: make(map[string]domain.Incident)}
}

// ApplySnapshot replaces the sequence wholesale with a REST fetch result,
// preserving the server's ordering and dropping any duplicate ids.
func (r *Reconciler) ApplySnapshot(incidents []domain.Incident) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = r.order[:0]
	r.byID = make(map[string]domain.Incident, len(incidents))
	for _, inc := range incidents {
		if _, seen := r.byID[inc.ID]; seen {
			continue
		}
		r.order = append(r.order, inc.ID)
		r.byID[inc.ID] = inc
	}
}

// ApplyNew prepends an incident unless its id is already present. Duplicate
// delivery (the author's own echo, a reconnect race, a snapshot that beat
// the event) is discarded, so applying the same event twice is a no-op.
func (r *Reconciler) ApplyNew(inc domain.Incident) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.byID[inc.ID]; seen {
		return
	}
	r.order = append([]string{inc.ID}, r.order...)
	r.byID[inc.ID] = inc
}

// ApplyUpdate replaces a known incident in place, preserving its position.
// Updates for unknown ids are ignored: an update event is not a substitute
// for a creation event.
func (r *Reconciler) ApplyUpdate(inc domain.Incident) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.byID[inc.ID]; !seen {
		return
	}
	r.byID[inc.ID] = inc
}

// Apply routes a realtime event by name. Unknown events are ignored.
func (r *Reconciler) Apply(event string, inc domain.Incident) {
	switch event {
	case realtime.EventNewIncident:
		r.ApplyNew(inc)
	case realtime.EventUpdateIncident:
		r.ApplyUpdate(inc)
	}
}

// Incidents returns the current view, most recent first.
func (r *Reconciler) Incidents() []domain.Incident {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Incident, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of incidents in the view.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// DisplayName returns the reporter name a client should render.
func DisplayName(inc domain.Incident) string {
	if inc.IsAnonymous {
		return AnonymousName
	}
	return inc.User
}
