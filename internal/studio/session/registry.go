// Package session tracks ephemeral guest sessions. A guest session owns an
// in-memory studio.GuestStore; everything created under it disappears when
// the session expires or the registry drops it. Guests are never written to
// the database.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"studio/internal/studio"
)

type entry struct {
	store    *studio.GuestStore
	deadline time.Time
}

type Registry struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*entry
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{ttl: ttl, entries: make(map[string]*entry)}
}

// Acquire returns the store for the given session id, minting a new session
// when the id is unknown, empty, or expired. Each access extends the TTL.
// Expired sessions are swept here; there is no background timer.
func (r *Registry) Acquire(id string) (string, *studio.GuestStore) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.sweep(now)

	if id != "" {
		if e, ok := r.entries[id]; ok {
			e.deadline = now.Add(r.ttl)
			return id, e.store
		}
	}

	id = uuid.NewString()
	e := &entry{store: studio.NewGuestStore(), deadline: now.Add(r.ttl)}
	r.entries[id] = e
	return id, e.store
}

// Drop discards a session and everything it owns.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

func (r *Registry) sweep(now time.Time) {
	for id, e := range r.entries {
		if now.After(e.deadline) {
			delete(r.entries, id)
		}
	}
}

// Len reports live sessions; used by tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
