package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttleTTL = 15 * time.Minute

// ResetThrottle rate-limits password-reset requests per email address.
// Key format: pwreset:<email>
type ResetThrottle struct {
	client *redis.Client
}

// NewResetThrottle creates a ResetThrottle wrapping the given Redis client.
func NewResetThrottle(client *redis.Client) *ResetThrottle {
	return &ResetThrottle{client: client}
}

// Allow reports whether a reset may be issued for this email right now. The
// first call within throttleTTL wins; subsequent calls are denied until the
// key expires.
func (t *ResetThrottle) Allow(ctx context.Context, email string) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.key(email), "1", throttleTTL).Result()
	if err != nil {
		return false, fmt.Errorf("reset throttle: %w", err)
	}
	return ok, nil
}

func (t *ResetThrottle) key(email string) string {
	return fmt.Sprintf("pwreset:%s", email)
}
