package ws

import (
	"sync"
	"time"

	"github.com/aryaduta/workhub-realtime/internal/domain"
)

// graceEntry holds the topic memberships of a recently closed connection
type graceEntry struct {
	topics    []domain.Group
	expiresAt time.Time
}

// topicGrace preserves topic-group membership across a brief
// disconnect/reconnect pair presenting the same credential. Best-effort and
// bounded by a fixed TTL; an expired or missing entry simply means the
// client rejoins its topics by hand.
type topicGrace struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]graceEntry

	stop     chan struct{}
	stopOnce sync.Once
}

// newTopicGrace creates the cache. A non-positive ttl disables it.
func newTopicGrace(ttl time.Duration) *topicGrace {
	g := &topicGrace{
		ttl:     ttl,
		entries: make(map[string]graceEntry),
		stop:    make(chan struct{}),
	}
	if ttl > 0 {
		go g.sweepLoop()
	}
	return g
}

// Close stops the sweep goroutine. Idempotent.
func (g *topicGrace) Close() {
	g.stopOnce.Do(func() {
		close(g.stop)
	})
}

// Stash records the topics under the session key, replacing any previous
// entry for that key
func (g *topicGrace) Stash(key string, topics []domain.Group) {
	if g.ttl <= 0 || key == "" || len(topics) == 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[key] = graceEntry{
		topics:    topics,
		expiresAt: time.Now().Add(g.ttl),
	}
}

// Take removes and returns the stashed topics for the session key, or nil
// if none exist or the entry expired
func (g *topicGrace) Take(key string) []domain.Group {
	if key == "" {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[key]
	if !ok {
		return nil
	}
	delete(g.entries, key)

	if time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.topics
}

// Count returns the number of live entries
func (g *topicGrace) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// sweepLoop periodically evicts expired entries
func (g *topicGrace) sweepLoop() {
	ticker := time.NewTicker(g.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.sweep()
		case <-g.stop:
			return
		}
	}
}

func (g *topicGrace) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, entry := range g.entries {
		if now.After(entry.expiresAt) {
			delete(g.entries, key)
		}
	}
}
