package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aryaduta/workhub-realtime/internal/auth"
	"github.com/aryaduta/workhub-realtime/internal/domain"
	"github.com/aryaduta/workhub-realtime/internal/metrics"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func newGatewayServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()

	store := auth.NewMemoryAccountStore()
	store.Put(auth.Account{ID: "u1", Email: "u1@example.com", Role: domain.RoleStudent, Active: true})
	store.Put(auth.Account{ID: "u9", Email: "u9@example.com", Role: domain.RoleEmployer, Active: false})

	verifier := auth.NewVerifier(testSecret, store, testLogger())
	gateway := NewGateway(hub, verifier, hub.metrics, testLogger())

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		gateway.Accept(conn, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server, token string) string {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func TestGateway_AuthenticatedConnect(t *testing.T) {
	hub := newTestHub(t)
	server := newGatewayServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, signToken(t, "u1", time.Hour)), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read connected ack: %v", err)
	}

	var evt domain.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("Failed to unmarshal ack: %v", err)
	}
	if evt.Type != domain.EventConnected {
		t.Fatalf("Expected connected event, got %s", evt.Type)
	}

	var payload domain.ConnectedPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		t.Fatalf("Failed to unmarshal ack payload: %v", err)
	}
	if payload.UserID != "u1" || payload.Role != domain.RoleStudent {
		t.Errorf("Unexpected identity in ack: %+v", payload)
	}

	// The ack is only sent after registration completed
	if !hub.Registry().IsOnline("u1") {
		t.Error("Expected u1 online after connected ack")
	}
}

func TestGateway_PingPongOverWire(t *testing.T) {
	hub := newTestHub(t)
	server := newGatewayServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, signToken(t, "u1", time.Hour)), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil { // connected ack
		t.Fatalf("Failed to read ack: %v", err)
	}

	if err := conn.WriteJSON(domain.ControlMessage{Type: domain.ControlPing}); err != nil {
		t.Fatalf("Failed to send ping: %v", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read pong: %v", err)
	}
	var evt domain.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("Failed to unmarshal pong: %v", err)
	}
	if evt.Type != domain.EventPong {
		t.Errorf("Expected pong, got %s", evt.Type)
	}
}

func TestGateway_ConfiguredReadLimitEnforced(t *testing.T) {
	hub := NewHub(metrics.New(prometheus.NewRegistry()), domain.TopicGraceWindow, 64, testLogger())
	t.Cleanup(hub.Close)
	server := newGatewayServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, signToken(t, "u1", time.Hour)), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil { // connected ack
		t.Fatalf("Failed to read ack: %v", err)
	}

	frame := `{"type":"join_topic","payload":{"topic_id":"` + strings.Repeat("a", 200) + `"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("Failed to send oversized frame: %v", err)
	}

	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("Expected close error for oversized frame, got %v", err)
	}
	if closeErr.Code != websocket.CloseMessageTooBig {
		t.Errorf("Expected message-too-big close, got %d", closeErr.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected connection unregistered, got %d clients", hub.ClientCount())
	}
}

func TestGateway_ExpiredTokenRejected(t *testing.T) {
	hub := newTestHub(t)
	server := newGatewayServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, signToken(t, "u1", -time.Hour)), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()

	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("Expected close error, got %v", err)
	}
	if closeErr.Code != websocket.ClosePolicyViolation || closeErr.Text != "invalid_token" {
		t.Errorf("Expected policy violation close with invalid_token, got %d %q", closeErr.Code, closeErr.Text)
	}

	if hub.Registry().ConnectionCount() != 0 {
		t.Error("Expected connection count unaffected by rejected connection")
	}
	if hub.ClientCount() != 0 {
		t.Error("Expected no clients after rejected connection")
	}
}

func TestGateway_NoTokenRejected(t *testing.T) {
	hub := newTestHub(t)
	server := newGatewayServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, ""), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()

	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("Expected close error, got %v", err)
	}
	if closeErr.Text != "no_token" {
		t.Errorf("Expected no_token close reason, got %q", closeErr.Text)
	}
}

func TestGateway_DeactivatedAccountRejected(t *testing.T) {
	hub := newTestHub(t)
	server := newGatewayServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, signToken(t, "u9", time.Hour)), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()

	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("Expected close error, got %v", err)
	}
	if closeErr.Text != "user_not_found" {
		t.Errorf("Expected user_not_found close reason, got %q", closeErr.Text)
	}
}
