// Package monitoring holds the Prometheus instrumentation for the
// coordinator process.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ConnectedClients prometheus.Gauge
	LiveRooms        prometheus.Gauge
	Events           *prometheus.CounterVec
}

// NewMetrics registers the coordinator collectors on reg. Tests pass their
// own registry to keep collectors from colliding between cases.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pingroom",
			Name:      "connected_clients",
			Help:      "Number of WebSocket clients currently attached.",
		}),
		LiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pingroom",
			Name:      "live_rooms",
			Help:      "Number of rooms currently alive.",
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pingroom",
			Name:      "events_total",
			Help:      "Inbound signal events by type.",
		}, []string{"type"}),
	}
}
