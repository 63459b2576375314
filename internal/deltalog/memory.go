package deltalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryLog implements Log in process memory. Safe for concurrent use.
type MemoryLog struct {
	mu      sync.RWMutex
	entries map[int64]Entry
}

// NewMemory returns an empty in-memory log suitable for tests.
func NewMemory() *MemoryLog {
	return &MemoryLog{entries: make(map[int64]Entry)}
}

// Append stores the entry unless one already exists for its timestamp.
func (m *MemoryLog) Append(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.Timestamp]; ok {
		return nil
	}
	m.entries[e.Timestamp] = e
	return nil
}

// Entries returns all logged entries ordered by timestamp.
func (m *MemoryLog) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Close is a no-op.
func (m *MemoryLog) Close() error { return nil }
