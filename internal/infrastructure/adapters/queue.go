package adapters

import (
	"sync"

	"github.com/google/uuid"
)

// PayloadQueue holds pushed payloads per integration until the next sync run
// drains them: webhook bodies for the webhook adapter, raw file content for
// manual uploads. In-process; a restart loses undrained payloads, after which
// the source re-delivers.
type PayloadQueue struct {
	mu       sync.Mutex
	payloads map[uuid.UUID][][]byte
}

// NewPayloadQueue creates an empty PayloadQueue
func NewPayloadQueue() *PayloadQueue {
	return &PayloadQueue{payloads: make(map[uuid.UUID][][]byte)}
}

// Enqueue appends a payload to the integration's queue
func (q *PayloadQueue) Enqueue(integrationID uuid.UUID, payload []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads[integrationID] = append(q.payloads[integrationID], payload)
}

// Dequeue removes and returns the oldest payload, reporting whether one existed
func (q *PayloadQueue) Dequeue(integrationID uuid.UUID) ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue := q.payloads[integrationID]
	if len(queue) == 0 {
		return nil, false
	}
	payload := queue[0]
	if len(queue) == 1 {
		delete(q.payloads, integrationID)
	} else {
		q.payloads[integrationID] = queue[1:]
	}
	return payload, true
}

// Pending returns the number of queued payloads for the integration
func (q *PayloadQueue) Pending(integrationID uuid.UUID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.payloads[integrationID])
}
