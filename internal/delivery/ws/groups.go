package ws

import (
	"sync"

	"github.com/aryaduta/workhub-realtime/internal/domain"
)

// GroupIndex assigns each connection to zero or more broadcast groups and
// resolves a group to its current connection set. Personal, role, and admin
// memberships are established once at connection setup; only topic
// memberships change during a connection's life.
type GroupIndex struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}    // group key -> connection ids
	joined  map[string]map[string]domain.Group // connection id -> group key -> group
}

// NewGroupIndex creates an empty index
func NewGroupIndex() *GroupIndex {
	return &GroupIndex{
		members: make(map[string]map[string]struct{}),
		joined:  make(map[string]map[string]domain.Group),
	}
}

// Join adds the connection to the group. Joining a group the connection
// already belongs to is a no-op.
func (gi *GroupIndex) Join(connID string, g domain.Group) {
	gi.mu.Lock()
	defer gi.mu.Unlock()

	conns, ok := gi.members[g.Key]
	if !ok {
		conns = make(map[string]struct{})
		gi.members[g.Key] = conns
	}
	conns[connID] = struct{}{}

	groups, ok := gi.joined[connID]
	if !ok {
		groups = make(map[string]domain.Group)
		gi.joined[connID] = groups
	}
	groups[g.Key] = g
}

// Leave removes the connection from the group. Leaving a group the
// connection never joined is a no-op, not an error.
func (gi *GroupIndex) Leave(connID string, g domain.Group) {
	gi.mu.Lock()
	defer gi.mu.Unlock()
	gi.leaveLocked(connID, g.Key)
}

// leaveLocked removes one membership. Caller must hold the write lock.
func (gi *GroupIndex) leaveLocked(connID, groupKey string) {
	if conns, ok := gi.members[groupKey]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(gi.members, groupKey)
		}
	}
	if groups, ok := gi.joined[connID]; ok {
		delete(groups, groupKey)
		if len(groups) == 0 {
			delete(gi.joined, connID)
		}
	}
}

// MembersOf returns a snapshot of the connection ids in the group. The
// membership may change between resolution and delivery; callers must
// tolerate that.
func (gi *GroupIndex) MembersOf(g domain.Group) []string {
	gi.mu.RLock()
	defer gi.mu.RUnlock()

	conns, ok := gi.members[g.Key]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(conns))
	for id := range conns {
		ids = append(ids, id)
	}
	return ids
}

// GroupsFor returns a snapshot of every group the connection belongs to
func (gi *GroupIndex) GroupsFor(connID string) []domain.Group {
	gi.mu.RLock()
	defer gi.mu.RUnlock()

	groups, ok := gi.joined[connID]
	if !ok {
		return nil
	}
	out := make([]domain.Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	return out
}

// TopicsFor returns a snapshot of the topic groups the connection belongs to
func (gi *GroupIndex) TopicsFor(connID string) []domain.Group {
	gi.mu.RLock()
	defer gi.mu.RUnlock()

	groups, ok := gi.joined[connID]
	if !ok {
		return nil
	}
	var out []domain.Group
	for _, g := range groups {
		if g.Kind == domain.GroupTopic {
			out = append(out, g)
		}
	}
	return out
}

// DropConnection removes the connection from every group it belongs to.
// Invoked at disconnect.
func (gi *GroupIndex) DropConnection(connID string) {
	gi.mu.Lock()
	defer gi.mu.Unlock()

	groups, ok := gi.joined[connID]
	if !ok {
		return
	}
	for key := range groups {
		if conns, ok := gi.members[key]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(gi.members, key)
			}
		}
	}
	delete(gi.joined, connID)
}

// GroupCount returns the number of groups with at least one member
func (gi *GroupIndex) GroupCount() int {
	gi.mu.RLock()
	defer gi.mu.RUnlock()
	return len(gi.members)
}
