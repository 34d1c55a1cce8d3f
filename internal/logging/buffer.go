package logging

import (
	"sync"
	"time"
)

// LogEntry is one record kept for GET /api/logs.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent log entries. It is safe for concurrent use.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int // slot the next Write fills
	full    bool
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{entries: make([]LogEntry, max(size, 1))}
}

// Write stores entry, replacing the oldest one when the buffer is full.
func (rb *RingBuffer) Write(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.next] = entry
	rb.next++
	if rb.next == len(rb.entries) {
		rb.next = 0
		rb.full = true
	}
}

// Count returns the number of entries held.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.countLocked()
}

func (rb *RingBuffer) countLocked() int {
	if rb.full {
		return len(rb.entries)
	}
	return rb.next
}

// ReadAll returns every entry, oldest first, or nil when empty.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.Tail(0)
}

// Tail returns up to n of the most recent entries, oldest first.
// A non-positive n returns every entry.
func (rb *RingBuffer) Tail(n int) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	count := rb.countLocked()
	if count == 0 {
		return nil
	}
	if n <= 0 || n > count {
		n = count
	}

	out := make([]LogEntry, n)
	start := rb.next - n
	if start < 0 {
		start += len(rb.entries)
	}
	for i := range out {
		out[i] = rb.entries[(start+i)%len(rb.entries)]
	}
	return out
}
