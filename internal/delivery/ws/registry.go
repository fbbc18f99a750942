package ws

import "sync"

// Registry is the source of truth for who is online: a mapping from userID
// to the set of connection ids currently open for that user. A user may
// hold several simultaneous connections (multiple tabs or devices).
// Entries are removed eagerly on disconnect, never lazily expired.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]map[string]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]map[string]struct{}),
	}
}

// Register adds connID to userID's entry, creating the entry if absent.
// Idempotent per connection id.
func (r *Registry) Register(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.entries[userID]
	if !ok {
		conns = make(map[string]struct{})
		r.entries[userID] = conns
	}
	conns[connID] = struct{}{}
}

// Unregister removes connID from userID's entry. An entry that becomes
// empty is removed entirely, no tombstones.
func (r *Registry) Unregister(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.entries[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.entries, userID)
	}
}

// IsOnline reports whether the user currently has at least one connection
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[userID]) > 0
}

// ConnectionCount returns the total number of registered connections
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, conns := range r.entries {
		total += len(conns)
	}
	return total
}

// ConnectionsFor returns a snapshot of the connection ids open for userID
func (r *Registry) ConnectionsFor(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.entries[userID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(conns))
	for id := range conns {
		ids = append(ids, id)
	}
	return ids
}
