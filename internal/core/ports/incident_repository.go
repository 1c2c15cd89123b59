package ports

import (
	"context"

	"github.com/citywatch/incident-api/internal/core/domain"
)

// IncidentRepository defines persistence operations for incidents.
// Lookups and targeted updates return domain.ErrIncidentNotFound when the id
// does not exist.
type IncidentRepository interface {
	Insert(ctx context.Context, inc *domain.Incident) error
	FindByID(ctx context.Context, id string) (*domain.Incident, error)
	// List returns all incidents ordered newest-first by creation time.
	List(ctx context.Context) ([]*domain.Incident, error)
	// UpdateStatus sets only the status field and returns the updated record.
	UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Incident, error)
	// ToggleUpvote flips username's membership in the upvote set as a single
	// atomic document-level instruction and returns the updated record.
	// Concurrent toggles by different users on the same incident must both
	// end up durably reflected.
	ToggleUpvote(ctx context.Context, id, username string) (*domain.Incident, error)
	Delete(ctx context.Context, id string) error
}
