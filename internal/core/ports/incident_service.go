package ports

import (
	"context"

	"github.com/citywatch/incident-api/internal/core/domain"
)

// Actor identifies the authenticated caller of a mutating operation.
type Actor struct {
	UserID   string
	Username string
	Role     string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// CreateIncidentInput carries the data needed to report a new incident.
// Category may be empty (defaults to General); ImageURL is an opaque URL
// produced by the external object store, passed through untouched.
type CreateIncidentInput struct {
	Title       string
	Location    string
	Description string
	Category    string
	IsAnonymous bool
	ImageURL    string
}

// IncidentService defines use-case operations for incidents. All mutations
// commit to durable storage before any broadcast side effect.
type IncidentService interface {
	Create(ctx context.Context, actor Actor, input CreateIncidentInput) (*domain.Incident, error)
	List(ctx context.Context) ([]*domain.Incident, error)
	Get(ctx context.Context, id string) (*domain.Incident, error)
	// UpdateStatus requires the actor to be the original reporter or an admin.
	UpdateStatus(ctx context.Context, actor Actor, id, status string) (*domain.Incident, error)
	// ToggleUpvote flips the actor's upvote; any authenticated user may call it.
	ToggleUpvote(ctx context.Context, actor Actor, id string) (*domain.Incident, error)
	// Delete requires the actor to be the original reporter or an admin.
	Delete(ctx context.Context, actor Actor, id string) error
}
