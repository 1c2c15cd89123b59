package domain

import (
	"errors"
	"time"
)

// Category classifies the kind of civic issue being reported.
type Category string

const (
	CategoryGeneral        Category = "General"
	CategorySanitation     Category = "Sanitation"
	CategoryInfrastructure Category = "Infrastructure"
	CategoryTraffic        Category = "Traffic"
	CategoryWater          Category = "Water"
)

// ParseCategory maps a request string onto a known category. An empty string
// defaults to General; anything else unknown is rejected.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case "":
		return CategoryGeneral, nil
	case CategoryGeneral, CategorySanitation, CategoryInfrastructure, CategoryTraffic, CategoryWater:
		return Category(s), nil
	}
	return "", ErrValidation
}

// Status represents the handling state of an incident. Any authorized party
// may set any value; the lifecycle is not a strict state machine.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

// ParseStatus validates a requested status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusInProgress, StatusResolved:
		return Status(s), nil
	}
	return "", ErrValidation
}

var (
	ErrValidation       = errors.New("invalid input")
	ErrIncidentNotFound = errors.New("incident not found")
	ErrForbidden        = errors.New("access forbidden")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrTokenExpired     = errors.New("token expired")
)

// Incident is the core aggregate root: one citizen-submitted report.
//
// Title, Location, Description, Category, User, IsAnonymous, ImageURL and
// CreatedAt are immutable after creation; only Status and Upvotes change.
// The reporter's username is always stored, even for anonymous reports.
// IsAnonymous is a display hint applied by consuming clients, never a
// server-side redaction.
type Incident struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Location    string    `json:"location" bson:"location"`
	Description string    `json:"description" bson:"description"`
	Category    Category  `json:"type" bson:"type"`
	Status      Status    `json:"status" bson:"status"`
	User        string    `json:"user" bson:"user"`
	IsAnonymous bool      `json:"isAnonymous" bson:"is_anonymous"`
	ImageURL    string    `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Upvotes     []string  `json:"upvotes" bson:"upvotes"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// HasUpvote reports whether username is present in the upvote set.
func (i *Incident) HasUpvote(username string) bool {
	for _, u := range i.Upvotes {
		if u == username {
			return true
		}
	}
	return false
}
