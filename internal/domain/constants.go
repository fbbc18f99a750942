package domain

import "time"

// ==== WebSocket Constants ====

// MaxMessageSize is the maximum allowed inbound control message size in bytes
const MaxMessageSize = 4096

// ==== Reconnect Constants ====

// TopicGraceWindow is the default window in which a reconnect presenting the
// same credential has its topic memberships restored best-effort
const TopicGraceWindow = 30 * time.Second

// ==== Observability Constants ====

// RecentEventsSize is the default capacity of the recent-event buffer
const RecentEventsSize = 200

// ==== Rate Limit Constants ====

const (
	// DefaultRateLimitAPI is the default rate limit for the internal
	// trigger API (requests/sec)
	DefaultRateLimitAPI = 10

	// DefaultRateLimitWS is the default rate limit for WebSocket
	// connection attempts (req/sec)
	DefaultRateLimitWS = 5
)
