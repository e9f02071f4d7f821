package numbering

import (
	"context"

	"github.com/google/uuid"
)

// CounterRepository persists document counters and performs atomic number
// allocation.
type CounterRepository interface {
	// FindForTenant loads the counter config for a document kind.
	FindForTenant(ctx context.Context, tenantID uuid.UUID, kind DocumentKind) (*DocumentCounter, error)

	// Save inserts or updates a counter config.
	Save(ctx context.Context, counter *DocumentCounter) error

	// Allocate atomically increments the counter for a kind and returns the
	// freshly rendered number. The read, increment and persist happen as one
	// storage transaction; on a detected write conflict the implementation
	// retries internally up to a small bound rather than reusing a number.
	Allocate(ctx context.Context, tenantID uuid.UUID, kind DocumentKind) (string, error)
}
