package notification

import "context"

// RecipientRateLimiter caps how many notifications one recipient can receive
// per window. Implementations live in infra/ratelimit/.
type RecipientRateLimiter interface {
	// Allow reports whether another notification may be sent to the recipient.
	Allow(ctx context.Context, recipient string) (bool, error)
}
