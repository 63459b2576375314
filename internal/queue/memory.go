package queue

import (
	"context"
	"sync"
)

// MemoryQueue implements Queue on a process-local slice. Safe for concurrent
// use; Pop returns ErrEmpty immediately when nothing is queued.
type MemoryQueue struct {
	mu      sync.Mutex
	records [][]byte
}

// NewMemory returns an empty in-memory queue suitable for tests.
func NewMemory() *MemoryQueue {
	return &MemoryQueue{}
}

// Push appends a record to the tail.
func (q *MemoryQueue) Push(ctx context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	q.records = append(q.records, cp)
	return nil
}

// Pop removes and returns the head record.
func (q *MemoryQueue) Pop(ctx context.Context) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.records) == 0 {
		return nil, ErrEmpty
	}
	head := q.records[0]
	q.records = q.records[1:]
	return head, nil
}

// Len returns the number of queued records.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Close is a no-op.
func (q *MemoryQueue) Close() error { return nil }
