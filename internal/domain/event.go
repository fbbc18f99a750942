package domain

import (
	"encoding/json"
	"time"
)

// EventType names a server-to-client event
type EventType string

const (
	// EventConnected is the one-time acknowledgment after authentication
	EventConnected EventType = "connected"
	// EventPong answers a client ping
	EventPong EventType = "pong"

	// Domain events originated by the marketplace backend
	EventKYCStatusChanged         EventType = "kyc_status_changed"
	EventJobApproved              EventType = "job_approved"
	EventJobRejected              EventType = "job_rejected"
	EventNewApplication           EventType = "new_application"
	EventApplicationStatusUpdated EventType = "application_status_updated"
)

// Event is the frame delivered to clients. Payload is opaque to the fan-out
// layer; ID and Timestamp are stamped by the dispatcher at dispatch time.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ConnectedPayload is carried by the EventConnected acknowledgment
type ConnectedPayload struct {
	Message      string `json:"message"`
	UserID       string `json:"user_id"`
	Role         Role   `json:"role"`
	ConnectionID string `json:"connection_id"`
}

// PongPayload is carried by the EventPong reply
type PongPayload struct {
	ServerTime time.Time `json:"server_time"`
}

// ControlType names a client-to-server control message
type ControlType string

const (
	ControlJoinTopic  ControlType = "join_topic"
	ControlLeaveTopic ControlType = "leave_topic"
	ControlPing       ControlType = "ping"
)

// ControlMessage is the inbound frame read off the wire
type ControlMessage struct {
	Type    ControlType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TopicPayload is carried by join_topic and leave_topic controls
type TopicPayload struct {
	TopicID string `json:"topic_id"`
}
