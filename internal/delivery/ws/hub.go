package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aryaduta/workhub-realtime/internal/domain"
	"github.com/aryaduta/workhub-realtime/internal/metrics"
)

// Hub owns the set of live authenticated connections and the shared
// Registry and GroupIndex they are tracked in. Register and Unregister are
// synchronous and safe under concurrent invocation from connection
// goroutines and dispatching callers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // connection id -> client

	registry  *Registry
	groups    *GroupIndex
	grace     *topicGrace
	readLimit int64
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewHub creates a hub with empty registries. graceTTL bounds the
// best-effort topic-membership grace window; zero disables it.
// maxMessageSize caps inbound control frames; non-positive falls back to
// the default.
func NewHub(m *metrics.Metrics, graceTTL time.Duration, maxMessageSize int, logger *slog.Logger) *Hub {
	if maxMessageSize <= 0 {
		maxMessageSize = domain.MaxMessageSize
	}
	return &Hub{
		clients:   make(map[string]*Client),
		registry:  NewRegistry(),
		groups:    NewGroupIndex(),
		grace:     newTopicGrace(graceTTL),
		readLimit: int64(maxMessageSize),
		metrics:   m,
		logger:    logger.With(slog.String("component", "hub")),
	}
}

// Close stops the hub's background work. Live connections are left to
// drain through server shutdown.
func (h *Hub) Close() {
	h.grace.Close()
}

// Registry exposes the connection registry for presence queries
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Groups exposes the group membership index
func (h *Hub) Groups() *GroupIndex {
	return h.groups
}

// Register tracks an authenticated client: registry entry, default group
// memberships derived from its identity, grace-window topic restoration,
// and the one-time connected acknowledgment. A connection only ever
// reaches Register after authentication succeeded.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.registry.Register(c.Identity.UserID, c.ID)

	h.groups.Join(c.ID, domain.PersonalGroup(c.Identity.UserID))
	h.groups.Join(c.ID, domain.RoleGroup(c.Identity.Role))
	if c.Identity.Role == domain.RoleAdmin {
		h.groups.Join(c.ID, domain.AdminGroup())
	}

	// Best-effort topic restoration for a quick reconnect with the same
	// credential. Restored or not, the client is expected to rejoin.
	restored := 0
	for _, g := range h.grace.Take(c.sessionKey) {
		h.groups.Join(c.ID, g)
		restored++
	}

	h.metrics.ActiveConnections.Inc()
	h.logger.Info("connection registered",
		slog.String("connID", c.ID),
		slog.String("userID", c.Identity.UserID),
		slog.String("role", string(c.Identity.Role)),
		slog.Int("topicsRestored", restored),
	)

	c.Send(buildEventFrame(domain.EventConnected, domain.ConnectedPayload{
		Message:      "connected",
		UserID:       c.Identity.UserID,
		Role:         c.Identity.Role,
		ConnectionID: c.ID,
	}))
}

// Unregister removes the client from the hub, the registry, and every
// group it belongs to. Safe to call more than once; only the first call
// has any effect.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	h.mu.Unlock()

	// Stash topic memberships before dropping them so a quick reconnect
	// can pick them back up.
	h.grace.Stash(c.sessionKey, h.groups.TopicsFor(c.ID))

	h.registry.Unregister(c.Identity.UserID, c.ID)
	h.groups.DropConnection(c.ID)
	c.close()

	h.metrics.ActiveConnections.Dec()
	h.logger.Info("connection unregistered",
		slog.String("connID", c.ID),
		slog.String("userID", c.Identity.UserID),
	)
}

// JoinTopic adds the client to a client-requested topic group after
// validating the topic id against the reserved namespaces
func (h *Hub) JoinTopic(c *Client, topicID string) error {
	g, err := domain.TopicGroup(topicID)
	if err != nil {
		return err
	}
	h.groups.Join(c.ID, g)
	return nil
}

// LeaveTopic removes the client from a topic group; leaving a topic the
// client never joined is a no-op
func (h *Hub) LeaveTopic(c *Client, topicID string) error {
	g, err := domain.TopicGroup(topicID)
	if err != nil {
		return err
	}
	h.groups.Leave(c.ID, g)
	return nil
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// clientsByID resolves connection ids to live clients, skipping ids whose
// connection closed since the snapshot was taken
func (h *Hub) clientsByID(ids []string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Client, 0, len(ids))
	for _, id := range ids {
		if c, ok := h.clients[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// allClients returns a snapshot of every registered client
func (h *Hub) allClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// buildEventFrame marshals a server-originated event with a fresh id and
// timestamp into its wire form
func buildEventFrame(typ domain.EventType, payload any) []byte {
	raw, _ := json.Marshal(payload)
	evt := domain.Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   raw,
		Timestamp: time.Now(),
	}
	data, _ := json.Marshal(evt)
	return data
}
