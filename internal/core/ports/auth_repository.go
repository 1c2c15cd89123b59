package ports

import (
	"context"
	"time"

	"github.com/citywatch/incident-api/internal/core/domain"
)

// UserRepository defines persistence for accounts and reset tokens.
// Lookups return domain.ErrUserNotFound when no document matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	LinkGoogleID(ctx context.Context, userID, googleID string) error

	// SetResetToken stores the hash of a freshly issued reset token and its
	// expiry, replacing any previous token.
	SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error
	// FindByResetToken matches a token hash whose expiry is after now.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	// UpdatePassword replaces the password hash and clears any reset token.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}
