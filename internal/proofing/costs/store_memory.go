package costs

import (
	"context"
	"slices"
	"sync"
)

// MemoryLedger keeps entries in process. Used by tests and the mock stack.
type MemoryLedger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(_ context.Context, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return nil
}

// Entries returns a copy of everything recorded.
func (l *MemoryLedger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// Count returns how many entries of costType were recorded.
func (l *MemoryLedger) Count(costType string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.CostType == costType {
			n++
		}
	}
	return n
}
