package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aryaduta/workhub-realtime/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Outbound buffer per connection; deliveries are dropped, not blocked
	// on, when it fills up
	sendBufferSize = 256
)

// Client is one live authenticated websocket connection
type Client struct {
	ID       string
	Identity domain.Identity
	JoinedAt time.Time

	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	sessionKey string
	logger     *slog.Logger
}

// NewClient creates a client with a fresh server-assigned connection id
func NewClient(hub *Hub, conn *websocket.Conn, identity domain.Identity, sessionKey string) *Client {
	id := uuid.New().String()
	return &Client{
		ID:         id,
		Identity:   identity,
		JoinedAt:   time.Now(),
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		sessionKey: sessionKey,
		logger:     hub.logger.With(slog.String("connID", id)),
	}
}

// ReadPump reads inbound control messages and processes them in arrival
// order until the transport closes for any reason
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("read error", slog.Any("error", err))
			}
			break
		}

		var incoming domain.ControlMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			// Malformed frame: discard, keep the connection open
			c.logger.Debug("discarding malformed control message")
			continue
		}

		c.handleControl(incoming)
	}
}

// handleControl processes one inbound control message. Malformed payloads
// are discarded without closing the connection.
func (c *Client) handleControl(msg domain.ControlMessage) {
	switch msg.Type {
	case domain.ControlJoinTopic:
		c.hub.metrics.ControlMessages.WithLabelValues(string(domain.ControlJoinTopic)).Inc()
		var payload domain.TopicPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.logger.Debug("join_topic missing payload")
			return
		}
		if err := c.hub.JoinTopic(c, payload.TopicID); err != nil {
			c.logger.Debug("join_topic rejected",
				slog.String("topicID", payload.TopicID),
				slog.Any("error", err),
			)
		}

	case domain.ControlLeaveTopic:
		c.hub.metrics.ControlMessages.WithLabelValues(string(domain.ControlLeaveTopic)).Inc()
		var payload domain.TopicPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.logger.Debug("leave_topic missing payload")
			return
		}
		if err := c.hub.LeaveTopic(c, payload.TopicID); err != nil {
			c.logger.Debug("leave_topic rejected",
				slog.String("topicID", payload.TopicID),
				slog.Any("error", err),
			)
		}

	case domain.ControlPing:
		c.hub.metrics.ControlMessages.WithLabelValues(string(domain.ControlPing)).Inc()
		c.Send(buildEventFrame(domain.EventPong, domain.PongPayload{
			ServerTime: time.Now(),
		}))

	default:
		// Collapse arbitrary client-supplied types into one label so a
		// client cannot grow the metric series set
		c.hub.metrics.ControlMessages.WithLabelValues("unknown").Inc()
		c.logger.Debug("unknown control message type", slog.String("type", string(msg.Type)))
	}
}

// WritePump writes queued outbound frames to the websocket connection and
// keeps the transport alive with periodic pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any further queued frames into the same write
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send queues a frame for delivery. Non-blocking: returns false when the
// connection is closed or its buffer is full, so a slow consumer never
// stalls the caller.
func (c *Client) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close signals the write pump to finish. Idempotent.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
