package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryaduta/workhub-realtime/internal/auth"
	"github.com/aryaduta/workhub-realtime/internal/metrics"
)

// Gateway owns the connection lifecycle from upgrade to close. A
// connection that fails authentication is terminated before it touches the
// registry or any group.
type Gateway struct {
	hub      *Hub
	verifier *auth.Verifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewGateway creates a gateway for the hub
func NewGateway(hub *Hub, verifier *auth.Verifier, m *metrics.Metrics, logger *slog.Logger) *Gateway {
	return &Gateway{
		hub:      hub,
		verifier: verifier,
		metrics:  m,
		logger:   logger.With(slog.String("component", "gateway")),
	}
}

// Accept runs the post-upgrade lifecycle: authenticate, register, start
// the pumps. On authentication failure the transport is closed with the
// failure reason and nothing else happens.
func (g *Gateway) Accept(conn *websocket.Conn, r *http.Request) {
	identity, err := g.verifier.Verify(r.Context(), r)
	if err != nil {
		reason := auth.FailureReason(err)
		g.metrics.AuthFailures.WithLabelValues(reason).Inc()
		g.logger.Warn("authentication failed",
			slog.String("reason", reason),
			slog.String("remote", r.RemoteAddr),
		)
		g.reject(conn, reason)
		return
	}

	var sessionKey string
	if token, err := auth.TokenFromRequest(r); err == nil {
		sessionKey = auth.SessionKey(token)
	}

	client := NewClient(g.hub, conn, identity, sessionKey)
	g.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// reject closes the transport with a policy-violation close frame carrying
// the failure reason, before any application data flows
func (g *Gateway) reject(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(writeWait)
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		deadline,
	)
	conn.Close()
}
