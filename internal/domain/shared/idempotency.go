package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys that have already been processed,
// so retried mutations (e.g. a replayed PO conversion) return the original
// outcome instead of executing twice.
type IdempotencyStore interface {
	// MarkProcessed records a key with a TTL. Returns true if the key was
	// newly recorded, false if a previous request already claimed it.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether a key has already been recorded.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed key stays claimed. Default: 24 hours.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
