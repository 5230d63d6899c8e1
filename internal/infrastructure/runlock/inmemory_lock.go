package runlock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modaretail/backend/internal/domain/integration"
)

// Ensure InMemoryRunLock implements RunLock
var _ integration.RunLock = (*InMemoryRunLock)(nil)

type lockEntry struct {
	expiresAt time.Time
}

// InMemoryRunLock implements the run lock with a mutex-guarded map. Suitable
// for single-instance deployments and testing.
type InMemoryRunLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]lockEntry
}

// NewInMemoryRunLock creates an empty in-memory run lock
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{locks: make(map[uuid.UUID]lockEntry)}
}

// Acquire attempts to take the lock. Expired entries are treated as free.
func (l *InMemoryRunLock) Acquire(_ context.Context, integrationID uuid.UUID, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, held := l.locks[integrationID]; held && time.Now().Before(e.expiresAt) {
		return false, nil
	}
	l.locks[integrationID] = lockEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// Release frees the lock
func (l *InMemoryRunLock) Release(_ context.Context, integrationID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, integrationID)
	return nil
}
