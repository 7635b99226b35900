// Package storage holds the previous-state snapshot used as the diff baseline.
package storage

import (
	"sync"

	"darshan-notifier/pkg/booking"
)

// Store keeps the last-observed availability per resource kind. State lives
// only in process memory and starts empty, so the first poll after a restart
// records a baseline without notifying. The mutex covers the read-then-write
// window of a tick in case the poll endpoint is ever invoked concurrently.
type Store struct {
	mu        sync.Mutex
	snapshots map[booking.Kind][]booking.AvailableSlot
}

// New creates an empty snapshot store.
func New() *Store {
	return &Store{
		snapshots: make(map[booking.Kind][]booking.AvailableSlot),
	}
}

// Get returns the last snapshot for a kind. ok is false before the first Put,
// which is how a cold start is distinguished from observed-empty availability.
func (s *Store) Get(kind booking.Kind) (snapshot []booking.AvailableSlot, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok = s.snapshots[kind]
	return snapshot, ok
}

// Put overwrites the snapshot for a kind with this tick's aggregation result.
func (s *Store) Put(kind booking.Kind, snapshot []booking.AvailableSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[kind] = snapshot
}
