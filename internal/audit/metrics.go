package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts audit events that never reached Kafka.
type Metrics struct {
	Dropped prometheus.Counter
	Failed  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "docverify_audit_events_dropped_total",
			Help: "Audit events discarded because the async buffer was full",
		}),
		Failed: f.NewCounter(prometheus.CounterOpts{
			Name: "docverify_audit_events_failed_total",
			Help: "Audit events the background worker could not write",
		}),
	}
}

func (m *Metrics) dropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.Failed.Inc()
	}
}
