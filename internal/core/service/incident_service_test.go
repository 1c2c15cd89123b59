package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/citywatch/incident-api/internal/core/domain"
	"github.com/citywatch/incident-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubIncidentRepo struct {
	mu        sync.Mutex
	incidents map[string]*domain.Incident
	insertErr error
}

func newStubIncidentRepo() *stubIncidentRepo {
	return &stubIncidentRepo{incidents: make(map[string]*domain.Incident)}
}

func cloneIncident(inc *domain.Incident) *domain.Incident {
	clone := *inc
	clone.Upvotes = append([]string(nil), inc.Upvotes...)
	return &clone
}

func (r *stubIncidentRepo) Insert(_ context.Context, inc *domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.incidents[inc.ID] = cloneIncident(inc)
	return nil
}

func (r *stubIncidentRepo) FindByID(_ context.Context, id string) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incidents[id]
	if !ok {
		return nil, domain.ErrIncidentNotFound
	}
	return cloneIncident(inc), nil
}

func (r *stubIncidentRepo) List(_ context.Context) ([]*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Incident, 0, len(r.incidents))
	for _, inc := range r.incidents {
		out = append(out, cloneIncident(inc))
	}
	return out, nil
}

func (r *stubIncidentRepo) UpdateStatus(_ context.Context, id string, status domain.Status) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incidents[id]
	if !ok {
		return nil, domain.ErrIncidentNotFound
	}
	inc.Status = status
	return cloneIncident(inc), nil
}

func (r *stubIncidentRepo) ToggleUpvote(_ context.Context, id, username string) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incidents[id]
	if !ok {
		return nil, domain.ErrIncidentNotFound
	}
	kept := inc.Upvotes[:0]
	removed := false
	for _, u := range inc.Upvotes {
		if u == username {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	inc.Upvotes = kept
	if !removed {
		inc.Upvotes = append(inc.Upvotes, username)
	}
	return cloneIncident(inc), nil
}

func (r *stubIncidentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.incidents[id]; !ok {
		return domain.ErrIncidentNotFound
	}
	delete(r.incidents, id)
	return nil
}

type recordedEvent struct {
	event    string
	incident *domain.Incident
}

type stubBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *stubBroadcaster) BroadcastNewIncident(inc *domain.Incident) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{"new_incident", inc})
}

func (b *stubBroadcaster) BroadcastIncidentUpdate(inc *domain.Incident) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{"update_incident", inc})
}

func (b *stubBroadcaster) recorded() []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedEvent(nil), b.events...)
}

func newTestIncidentService(repo *stubIncidentRepo, b *stubBroadcaster) *IncidentService {
	return NewIncidentService(repo, b, zerolog.Nop())
}

var (
	alice = ports.Actor{UserID: "u1", Username: "alice", Role: domain.RoleUser}
	bob   = ports.Actor{UserID: "u2", Username: "bob", Role: domain.RoleUser}
	admin = ports.Actor{UserID: "u3", Username: "root", Role: domain.RoleAdmin}
)

func validInput() ports.CreateIncidentInput {
	return ports.CreateIncidentInput{
		Title:       "Broken streetlight",
		Location:    "5th and Main",
		Description: "Light has been out for a week",
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestIncidentService_Create_Defaults(t *testing.T) {
	repo := newStubIncidentRepo()
	bc := &stubBroadcaster{}
	svc := newTestIncidentService(repo, bc)

	inc, err := svc.Create(context.Background(), alice, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if inc.ID == "" {
		t.Fatalf("expected generated id")
	}
	if inc.Category != domain.CategoryGeneral {
		t.Fatalf("empty category must default to General, got %s", inc.Category)
	}
	if inc.Status != domain.StatusOpen {
		t.Fatalf("new incident must start Open, got %s", inc.Status)
	}
	if inc.User != "alice" {
		t.Fatalf("reporter must be recorded, got %q", inc.User)
	}
	if inc.Upvotes == nil || len(inc.Upvotes) != 0 {
		t.Fatalf("upvotes must start as an empty set, got %#v", inc.Upvotes)
	}

	events := bc.recorded()
	if len(events) != 1 || events[0].event != "new_incident" {
		t.Fatalf("expected a single new_incident broadcast, got %+v", events)
	}
	if events[0].incident.ID != inc.ID {
		t.Fatalf("broadcast carries the wrong incident")
	}
}

// The reporter identity is stored even for anonymous reports; anonymity is a
// presentation concern.
func TestIncidentService_Create_AnonymousKeepsIdentity(t *testing.T) {
	repo := newStubIncidentRepo()
	svc := newTestIncidentService(repo, &stubBroadcaster{})

	input := validInput()
	input.IsAnonymous = true

	inc, err := svc.Create(context.Background(), alice, input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !inc.IsAnonymous {
		t.Fatalf("anonymous flag lost")
	}
	if inc.User != "alice" {
		t.Fatalf("identity must still be stored, got %q", inc.User)
	}
}

func TestIncidentService_Create_Validation(t *testing.T) {
	svc := newTestIncidentService(newStubIncidentRepo(), &stubBroadcaster{})

	cases := []struct {
		name string
		mut  func(*ports.CreateIncidentInput)
	}{
		{"missing title", func(in *ports.CreateIncidentInput) { in.Title = "" }},
		{"missing location", func(in *ports.CreateIncidentInput) { in.Location = "" }},
		{"missing description", func(in *ports.CreateIncidentInput) { in.Description = "" }},
		{"unknown category", func(in *ports.CreateIncidentInput) { in.Category = "Aliens" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mut(&input)
			if _, err := svc.Create(context.Background(), alice, input); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestIncidentService_Create_NoBroadcastOnInsertFailure(t *testing.T) {
	repo := newStubIncidentRepo()
	repo.insertErr = errors.New("write failed")
	bc := &stubBroadcaster{}
	svc := newTestIncidentService(repo, bc)

	if _, err := svc.Create(context.Background(), alice, validInput()); err == nil {
		t.Fatalf("expected insert error")
	}
	if len(bc.recorded()) != 0 {
		t.Fatalf("nothing may be broadcast for an uncommitted write")
	}
}

// ---------------------------------------------------------------------------
// UpdateStatus / Delete authorization
// ---------------------------------------------------------------------------

func TestIncidentService_UpdateStatus(t *testing.T) {
	repo := newStubIncidentRepo()
	bc := &stubBroadcaster{}
	svc := newTestIncidentService(repo, bc)

	inc, err := svc.Create(context.Background(), alice, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A stranger may not change someone else's report.
	if _, err := svc.UpdateStatus(context.Background(), bob, inc.ID, "Resolved"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	// The owner may.
	updated, err := svc.UpdateStatus(context.Background(), alice, inc.ID, "In Progress")
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Status != domain.StatusInProgress {
		t.Fatalf("status not applied, got %s", updated.Status)
	}

	// So may an admin.
	updated, err = svc.UpdateStatus(context.Background(), admin, inc.ID, "Resolved")
	if err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
	if updated.Status != domain.StatusResolved {
		t.Fatalf("status not applied, got %s", updated.Status)
	}

	events := bc.recorded()
	if len(events) != 3 { // create + two updates
		t.Fatalf("expected 3 broadcasts, got %d", len(events))
	}
	for _, ev := range events[1:] {
		if ev.event != "update_incident" {
			t.Fatalf("expected update_incident broadcast, got %q", ev.event)
		}
	}
}

func TestIncidentService_UpdateStatus_InvalidStatus(t *testing.T) {
	repo := newStubIncidentRepo()
	svc := newTestIncidentService(repo, &stubBroadcaster{})

	inc, _ := svc.Create(context.Background(), alice, validInput())
	if _, err := svc.UpdateStatus(context.Background(), alice, inc.ID, "Closed"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown status, got %v", err)
	}
}

func TestIncidentService_UpdateStatus_NotFound(t *testing.T) {
	svc := newTestIncidentService(newStubIncidentRepo(), &stubBroadcaster{})

	if _, err := svc.UpdateStatus(context.Background(), alice, "missing", "Resolved"); !errors.Is(err, domain.ErrIncidentNotFound) {
		t.Fatalf("expected ErrIncidentNotFound, got %v", err)
	}
}

func TestIncidentService_Delete(t *testing.T) {
	repo := newStubIncidentRepo()
	bc := &stubBroadcaster{}
	svc := newTestIncidentService(repo, bc)

	inc, _ := svc.Create(context.Background(), alice, validInput())

	if err := svc.Delete(context.Background(), bob, inc.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), admin, inc.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), inc.ID); !errors.Is(err, domain.ErrIncidentNotFound) {
		t.Fatalf("incident should be gone, got %v", err)
	}

	// Deletion is not broadcast.
	for _, ev := range bc.recorded() {
		if ev.event != "new_incident" {
			t.Fatalf("unexpected broadcast %q after delete", ev.event)
		}
	}
}

// ---------------------------------------------------------------------------
// Upvote toggle
// ---------------------------------------------------------------------------

func TestIncidentService_ToggleUpvote_RoundTrip(t *testing.T) {
	repo := newStubIncidentRepo()
	bc := &stubBroadcaster{}
	svc := newTestIncidentService(repo, bc)

	inc, _ := svc.Create(context.Background(), alice, validInput())

	voted, err := svc.ToggleUpvote(context.Background(), bob, inc.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !voted.HasUpvote("bob") || len(voted.Upvotes) != 1 {
		t.Fatalf("expected bob's upvote, got %#v", voted.Upvotes)
	}

	unvoted, err := svc.ToggleUpvote(context.Background(), bob, inc.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if unvoted.HasUpvote("bob") || len(unvoted.Upvotes) != 0 {
		t.Fatalf("double toggle must return to the original state, got %#v", unvoted.Upvotes)
	}
}

func TestIncidentService_ToggleUpvote_RequiresIdentity(t *testing.T) {
	svc := newTestIncidentService(newStubIncidentRepo(), &stubBroadcaster{})

	if _, err := svc.ToggleUpvote(context.Background(), ports.Actor{}, "any"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestIncidentService_ToggleUpvote_ConcurrentVoters(t *testing.T) {
	repo := newStubIncidentRepo()
	svc := newTestIncidentService(repo, &stubBroadcaster{})

	inc, _ := svc.Create(context.Background(), alice, validInput())

	var wg sync.WaitGroup
	voters := []ports.Actor{alice, bob}
	wg.Add(len(voters))
	for _, v := range voters {
		go func(actor ports.Actor) {
			defer wg.Done()
			if _, err := svc.ToggleUpvote(context.Background(), actor, inc.ID); err != nil {
				t.Errorf("toggle by %s failed: %v", actor.Username, err)
			}
		}(v)
	}
	wg.Wait()

	final, err := svc.Get(context.Background(), inc.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(final.Upvotes) != 2 || !final.HasUpvote("alice") || !final.HasUpvote("bob") {
		t.Fatalf("both concurrent votes must survive, got %#v", final.Upvotes)
	}
}
