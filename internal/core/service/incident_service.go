package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/citywatch/incident-api/internal/api/metrics"
	"github.com/citywatch/incident-api/internal/core/domain"
	"github.com/citywatch/incident-api/internal/core/ports"
)

// IncidentService implements the mutation API over the incident store.
// Every mutation commits to the repository before the broadcaster is
// invoked; a broadcast is never sent for a write that did not commit, and a
// committed write is never rolled back because a broadcast failed.
type IncidentService struct {
	repo        ports.IncidentRepository
	broadcaster ports.Broadcaster
	log         zerolog.Logger
}

func NewIncidentService(repo ports.IncidentRepository, broadcaster ports.Broadcaster, log zerolog.Logger) *IncidentService {
	return &IncidentService{repo: repo, broadcaster: broadcaster, log: log}
}

func (s *IncidentService) Create(ctx context.Context, actor ports.Actor, input ports.CreateIncidentInput) (*domain.Incident, error) {
	if input.Title == "" || input.Location == "" || input.Description == "" {
		return nil, fmt.Errorf("create incident: %w", domain.ErrValidation)
	}
	category, err := domain.ParseCategory(input.Category)
	if err != nil {
		return nil, fmt.Errorf("create incident: category %q: %w", input.Category, err)
	}

	incident := &domain.Incident{
		ID:          generateIncidentID(),
		Title:       input.Title,
		Location:    input.Location,
		Description: input.Description,
		Category:    category,
		Status:      domain.StatusOpen,
		// The real identity is always stored; IsAnonymous is a display hint
		// honoured by consuming clients only.
		User:        actor.Username,
		IsAnonymous: input.IsAnonymous,
		ImageURL:    input.ImageURL,
		Upvotes:     []string{},
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, incident); err != nil {
		s.log.Error().Err(err).Msg("failed to create incident")
		return nil, err
	}

	metrics.IncidentsCreatedTotal.WithLabelValues(string(category)).Inc()
	s.log.Info().
		Str("incident_id", incident.ID).
		Str("user", actor.Username).
		Str("category", string(category)).
		Msg("incident created")

	s.broadcaster.BroadcastNewIncident(incident)
	return incident, nil
}

func (s *IncidentService) List(ctx context.Context) ([]*domain.Incident, error) {
	return s.repo.List(ctx)
}

func (s *IncidentService) Get(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *IncidentService) UpdateStatus(ctx context.Context, actor ports.Actor, id, status string) (*domain.Incident, error) {
	newStatus, err := domain.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("update incident: status %q: %w", status, err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(actor, existing); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		s.log.Error().Err(err).Str("incident_id", id).Msg("failed to update status")
		return nil, err
	}

	metrics.IncidentMutationsTotal.WithLabelValues("status_update").Inc()
	s.log.Info().
		Str("incident_id", id).
		Str("status", status).
		Str("user", actor.Username).
		Msg("incident status updated")

	s.broadcaster.BroadcastIncidentUpdate(updated)
	return updated, nil
}

func (s *IncidentService) ToggleUpvote(ctx context.Context, actor ports.Actor, id string) (*domain.Incident, error) {
	if actor.Username == "" {
		return nil, domain.ErrUnauthenticated
	}

	updated, err := s.repo.ToggleUpvote(ctx, id, actor.Username)
	if err != nil {
		return nil, err
	}

	metrics.IncidentMutationsTotal.WithLabelValues("upvote").Inc()
	s.log.Debug().
		Str("incident_id", id).
		Str("user", actor.Username).
		Int("upvotes", len(updated.Upvotes)).
		Msg("upvote toggled")

	s.broadcaster.BroadcastIncidentUpdate(updated)
	return updated, nil
}

func (s *IncidentService) Delete(ctx context.Context, actor ports.Actor, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeMutation(actor, existing); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.IncidentMutationsTotal.WithLabelValues("delete").Inc()
	s.log.Info().Str("incident_id", id).Str("user", actor.Username).Msg("incident deleted")
	return nil
}

// authorizeMutation allows the original reporter and admins.
func authorizeMutation(actor ports.Actor, inc *domain.Incident) error {
	if actor.IsAdmin() || actor.Username == inc.User {
		return nil
	}
	return domain.ErrForbidden
}

// generateIncidentID returns a 24-char hex identifier.
func generateIncidentID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		// fallback: nanosecond clock
		return fmt.Sprintf("%024x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
