package request

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docverify_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
