package app

import (
	"github.com/dkeye/carelink/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	Connections   prometheus.Gauge
	ICERelayed    prometheus.Counter
	ICEDropped    prometheus.Counter
	MailboxReads  *prometheus.CounterVec
	CheckOutcomes *prometheus.CounterVec
	Escalations   *prometheus.CounterVec
	Backpressure  prometheus.Counter
	BusDeliveries prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "carelink",
			Name:      "live_connections",
			Help:      "Sockets currently held by this process.",
		}),
		ICERelayed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "ice_candidates_relayed_total",
			Help:      "ICE candidates forwarded to a counterpart.",
		}),
		ICEDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "ice_candidates_dropped_total",
			Help:      "ICE candidates dropped for lack of a counterpart.",
		}),
		MailboxReads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "mailbox_consume_total",
			Help:      "Mailbox consume attempts by role and result.",
		}, []string{"role", "result"}),
		CheckOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "safety_check_outcomes_total",
			Help:      "Safety check outcomes.",
		}, []string{"outcome"}),
		Escalations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "escalations_total",
			Help:      "Emergency escalations by event type.",
		}, []string{"event_type"}),
		Backpressure: f.NewCounter(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "backpressure_total",
			Help:      "Frames refused because a send buffer was full.",
		}),
		BusDeliveries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "carelink",
			Name:      "bus_deliveries_total",
			Help:      "Frames received from the bus and delivered to a local socket.",
		}),
	}
}

func (m *Metrics) connOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) connClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

func (m *Metrics) iceRelayed() {
	if m != nil {
		m.ICERelayed.Inc()
	}
}

func (m *Metrics) iceDropped() {
	if m != nil {
		m.ICEDropped.Inc()
	}
}

func (m *Metrics) mailboxRead(role domain.SignalRole, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.MailboxReads.WithLabelValues(string(role), result).Inc()
}

func (m *Metrics) checkOutcome(o CheckState) {
	if m != nil {
		m.CheckOutcomes.WithLabelValues(o.String()).Inc()
	}
}

// Escalated counts one emergency escalation.
func (m *Metrics) Escalated(eventType string) {
	if m != nil {
		m.Escalations.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) backpressure() {
	if m != nil {
		m.Backpressure.Inc()
	}
}

func (m *Metrics) busDelivered() {
	if m != nil {
		m.BusDeliveries.Inc()
	}
}
