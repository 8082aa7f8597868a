package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs so a handler never applies
// the same event twice.
type IdempotencyStore interface {
	// MarkProcessed returns true if the event was newly marked, false if it
	// had already been processed.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
