package history

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrInvalidLimit is returned for a non-positive page size.
var ErrInvalidLimit = errors.New("limit must be positive")

// MemoryRecorder keeps the most recent entries in memory.
type MemoryRecorder struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// NewMemoryRecorder returns a recorder that retains at most capacity entries.
//
// Precondition: capacity > 0.
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryRecorder{capacity: capacity}
}

// Record stores e, evicting the oldest entry when full.
func (m *MemoryRecorder) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append(m.entries[:0], m.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries for account, newest first. An empty
// account matches every entry.
func (m *MemoryRecorder) Recent(_ context.Context, account string, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, min(limit, len(m.entries)))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if account == "" || strings.EqualFold(m.entries[i].Account, account) {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

// Len returns the number of retained entries.
func (m *MemoryRecorder) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
