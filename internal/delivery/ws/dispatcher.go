package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryaduta/workhub-realtime/internal/domain"
	"github.com/aryaduta/workhub-realtime/internal/metrics"
)

// Dispatcher is the only write path the rest of the system has into the
// fan-out layer. It resolves a target selector to the current connection
// set and delivers the event to each connection independently: a full or
// closed connection never blocks the caller or the other recipients.
type Dispatcher struct {
	hub     *Hub
	recent  *RecentEvents
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDispatcher wires a dispatcher to the hub. recent may be nil to skip
// the debugging buffer.
func NewDispatcher(hub *Hub, recent *RecentEvents, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		hub:     hub,
		recent:  recent,
		metrics: m,
		logger:  logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch stamps the event with a fresh id and server timestamp and
// delivers it to every connection the target currently resolves to.
// A target resolving to zero connections is a silent no-op. The only
// error is a payload that cannot be marshaled, which is the caller's
// responsibility to avoid.
func (d *Dispatcher) Dispatch(typ domain.EventType, payload any, target domain.Target) error {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", typ, err)
		}
	}

	evt := domain.Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   raw,
		Timestamp: time.Now(),
	}
	frame, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", typ, err)
	}

	recipients := d.resolve(target)
	d.metrics.EventsDispatched.WithLabelValues(target.Label()).Inc()

	if len(recipients) == 0 {
		// Recipient is offline; no durable retry queue in this design
		d.metrics.DeliveryMisses.Inc()
		d.logger.Debug("no recipients for event",
			slog.String("type", string(typ)),
			slog.String("target", target.Label()),
		)
	}

	delivered := 0
	for _, c := range recipients {
		if c.Send(frame) {
			d.metrics.Deliveries.Inc()
			delivered++
		} else {
			d.metrics.DeliveriesDropped.Inc()
			d.logger.Warn("delivery dropped, send buffer full",
				slog.String("connID", c.ID),
				slog.String("type", string(typ)),
			)
		}
	}

	if d.recent != nil {
		d.recent.Add(EventRecord{
			EventID:    evt.ID,
			Type:       typ,
			Target:     target.Label(),
			Recipients: delivered,
			Timestamp:  evt.Timestamp,
		})
	}
	return nil
}

// resolve maps a target selector to the clients currently addressed by it
func (d *Dispatcher) resolve(target domain.Target) []*Client {
	switch target.Kind {
	case domain.TargetUser:
		return d.hub.clientsByID(d.hub.registry.ConnectionsFor(target.UserID))
	case domain.TargetGroup:
		return d.hub.clientsByID(d.hub.groups.MembersOf(target.Group))
	default:
		return d.hub.allClients()
	}
}
