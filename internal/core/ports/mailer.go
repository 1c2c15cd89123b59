package ports

import "context"

// Mailer is the narrow interface to the transactional email collaborator.
// Delivery happens out of band; implementations must not be retried by
// callers on failure.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}
