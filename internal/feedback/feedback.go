// Package feedback holds reviewer feedback about extraction results in
// a bounded in-memory log. The log is owned by the application process
// and injected where needed; it is not part of the extraction core.
package feedback

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the log when no capacity is configured.
const DefaultCapacity = 100

// Entry is one piece of reviewer feedback about a processed document.
type Entry struct {
	DocumentID string    `json:"document_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Log is a fixed-capacity ring buffer of feedback entries. When full,
// adding a new entry evicts the oldest one.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	count   int
}

// NewLog creates a Log with the given capacity. Non-positive capacities
// fall back to DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{entries: make([]Entry, capacity)}
}

// Add appends an entry, evicting the oldest when the log is full.
func (l *Log) Add(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := (l.start + l.count) % len(l.entries)
	l.entries[idx] = e
	if l.count < len(l.entries) {
		l.count++
	} else {
		l.start = (l.start + 1) % len(l.entries)
	}
}

// Entries returns the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, l.count)
	for i := 0; i < l.count; i++ {
		out = append(out, l.entries[(l.start+i)%len(l.entries)])
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Capacity returns the maximum number of retained entries.
func (l *Log) Capacity() int {
	return len(l.entries)
}
