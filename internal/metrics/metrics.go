/*
Package metrics declares the Prometheus collectors exported by the gateway.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "forumws"

/*
Metrics groups the gateway collectors.  A nil *Metrics is valid and records
nothing, which keeps components usable without a registry.
*/
type Metrics struct {
	Connections prometheus.Gauge
	Rooms       prometheus.Gauge
	Frames      *prometheus.CounterVec
	Broadcasts  prometheus.Counter
	Dropped     prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Number of open WebSocket connections.",
		}),
		Rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Number of rooms with at least one member.",
		}),
		Frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Inbound frames by type.",
		}, []string{"type"}),
		Broadcasts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Room broadcasts issued.",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_peers_total",
			Help:      "Connections dropped because their outbound queue was full.",
		}),
	}
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

func (m *Metrics) SetRooms(n int) {
	if m != nil {
		m.Rooms.Set(float64(n))
	}
}

func (m *Metrics) FrameReceived(typ string) {
	if m != nil {
		m.Frames.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) Broadcast() {
	if m != nil {
		m.Broadcasts.Inc()
	}
}

func (m *Metrics) PeerDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}
