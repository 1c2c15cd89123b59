package ports

import (
	"context"

	"github.com/citywatch/incident-api/internal/core/domain"
)

// Claims is the identity data carried by a session token.
type Claims struct {
	UserID   string
	Username string
	Role     string
}

// ExternalProfile is a verified identity delivered by the external provider's
// callback. The redirect/consent mechanics live outside this module; by the
// time a profile reaches AuthService it is trusted.
type ExternalProfile struct {
	Subject string // provider-scoped stable id
	Email   string
	Name    string
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	ExternalLogin(ctx context.Context, profile ExternalProfile) (string, *domain.User, error)

	// RequestPasswordReset never reveals whether the email exists; failures
	// that would leak that are logged and swallowed.
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	// VerifyToken checks signature and expiry only; there is no revocation.
	VerifyToken(token string) (*Claims, error)
}
