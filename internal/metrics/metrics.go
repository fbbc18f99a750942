package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the instruments exported by the fan-out layer
type Metrics struct {
	ActiveConnections prometheus.Gauge
	AuthFailures      *prometheus.CounterVec
	EventsDispatched  *prometheus.CounterVec
	Deliveries        prometheus.Counter
	DeliveriesDropped prometheus.Counter
	DeliveryMisses    prometheus.Counter
	ControlMessages   *prometheus.CounterVec
}

// New registers the instruments against reg. Tests pass a fresh
// prometheus.NewRegistry to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "workhub_rt_active_connections",
			Help: "Number of currently open authenticated connections",
		}),
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workhub_rt_auth_failures_total",
			Help: "Connection attempts rejected at authentication, by reason",
		}, []string{"reason"}),
		EventsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workhub_rt_events_dispatched_total",
			Help: "Events accepted by the dispatcher, by target kind",
		}, []string{"target"}),
		Deliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "workhub_rt_deliveries_total",
			Help: "Per-connection event deliveries queued to send buffers",
		}),
		DeliveriesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "workhub_rt_deliveries_dropped_total",
			Help: "Deliveries dropped because a connection send buffer was full",
		}),
		DeliveryMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "workhub_rt_delivery_misses_total",
			Help: "Dispatches whose target resolved to zero connections",
		}),
		ControlMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workhub_rt_control_messages_total",
			Help: "Inbound control messages processed, by type",
		}, []string{"type"}),
	}
}
