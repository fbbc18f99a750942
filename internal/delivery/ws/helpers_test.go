package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aryaduta/workhub-realtime/internal/domain"
	"github.com/aryaduta/workhub-realtime/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(metrics.New(prometheus.NewRegistry()), domain.TopicGraceWindow, domain.MaxMessageSize, testLogger())
	t.Cleanup(hub.Close)
	return hub
}

// newTestClient creates a client without an actual websocket connection
func newTestClient(hub *Hub, userID string, role domain.Role) *Client {
	identity := domain.Identity{
		UserID: userID,
		Role:   role,
		Email:  userID + "@example.com",
	}
	return NewClient(hub, nil, identity, "")
}

// readFrame pops one outbound frame off the client's send buffer
func readFrame(t *testing.T, c *Client) domain.Event {
	t.Helper()

	select {
	case data := <-c.send:
		var evt domain.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("Failed to unmarshal frame: %v", err)
		}
		return evt
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for outbound frame")
		return domain.Event{}
	}
}

// expectNoFrame asserts the client's send buffer is empty
func expectNoFrame(t *testing.T, c *Client) {
	t.Helper()

	select {
	case data := <-c.send:
		t.Fatalf("Expected no frame, got %s", string(data))
	default:
	}
}
