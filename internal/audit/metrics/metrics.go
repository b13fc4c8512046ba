package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit relay pipeline.
type Metrics struct {
	EventsPublished prometheus.Counter
	PublishFailures prometheus.Counter
	OutboxPending   prometheus.Gauge
}

// New creates and registers the audit relay metrics.
func New() *Metrics {
	return &Metrics{
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_audit_events_published_total",
			Help: "Total number of audit events relayed to Kafka",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_audit_publish_failures_total",
			Help: "Total number of failed audit event publications",
		}),
		OutboxPending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "custos_audit_outbox_pending",
			Help: "Outbox rows committed but not yet relayed",
		}),
	}
}

// IncrementPublished records one successfully relayed event.
func (m *Metrics) IncrementPublished() {
	if m != nil {
		m.EventsPublished.Inc()
	}
}

// IncrementFailures records one failed publication attempt.
func (m *Metrics) IncrementFailures() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}

// SetOutboxPending records the current relay backlog.
func (m *Metrics) SetOutboxPending(n int) {
	if m != nil {
		m.OutboxPending.Set(float64(n))
	}
}
