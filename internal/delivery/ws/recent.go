package ws

import (
	"sync"
	"time"

	"github.com/aryaduta/workhub-realtime/internal/domain"
)

// EventRecord summarizes one dispatched event for operational inspection
type EventRecord struct {
	EventID    string           `json:"event_id"`
	Type       domain.EventType `json:"type"`
	Target     string           `json:"target"`
	Recipients int              `json:"recipients"`
	Timestamp  time.Time        `json:"timestamp"`
}

// RecentEvents is a fixed-size circular buffer of the most recently
// dispatched events. O(1) append; oldest records are overwritten when full.
// Not a delivery queue: purely a debugging window.
type RecentEvents struct {
	mu   sync.Mutex
	data []EventRecord
	head int // next write position
	size int // current number of elements
	cap  int
}

// NewRecentEvents creates a buffer with the given capacity
func NewRecentEvents(capacity int) *RecentEvents {
	if capacity <= 0 {
		capacity = domain.RecentEventsSize
	}
	return &RecentEvents{
		data: make([]EventRecord, capacity),
		cap:  capacity,
	}
}

// Add appends a record, overwriting the oldest if the buffer is full
func (r *RecentEvents) Add(rec EventRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[r.head] = rec
	r.head = (r.head + 1) % r.cap
	if r.size < r.cap {
		r.size++
	}
}

// Snapshot returns the buffered records in chronological order, oldest first
func (r *RecentEvents) Snapshot() []EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		return nil
	}

	out := make([]EventRecord, r.size)
	if r.size < r.cap {
		copy(out, r.data[:r.size])
	} else {
		copy(out, r.data[r.head:])
		copy(out[r.cap-r.head:], r.data[:r.head])
	}
	return out
}

// Len returns the current number of buffered records
func (r *RecentEvents) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
