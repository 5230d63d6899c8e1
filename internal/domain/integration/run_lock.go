package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunLock serializes sync runs per integration. At most one run may hold the
// lock for an integration at any time; a second acquisition attempt is
// rejected, not queued. The TTL frees the slot if a holder crashes without
// releasing.
type RunLock interface {
	// Acquire attempts to take the lock. Returns false when another run
	// already holds it.
	Acquire(ctx context.Context, integrationID uuid.UUID, ttl time.Duration) (bool, error)

	// Release frees the lock. Releasing an unheld lock is a no-op.
	Release(ctx context.Context, integrationID uuid.UUID) error
}
