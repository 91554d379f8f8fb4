package eventlog

import (
	"context"
	"sync"
)

// MemoryArchiver keeps entries in memory; used in tests and as a fallback
// when no database is configured.
type MemoryArchiver struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryArchiver() *MemoryArchiver {
	return &MemoryArchiver{}
}

func (m *MemoryArchiver) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (m *MemoryArchiver) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
