package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification pipeline.
type Metrics struct {
	// Stage latencies: intake, normalize, ocr, consistency, face_match, dispatch
	StageLatency *prometheus.HistogramVec

	// Verdicts by final status and rejection reason
	Verdicts *prometheus.CounterVec

	// Distances reported by the face matching capability
	FaceDistance prometheus.Histogram

	// End-to-end pipeline latency
	VerifyLatency prometheus.Histogram
}

// New registers the verification metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the verification metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docverify_stage_duration_seconds",
			Help:    "Duration of each verification pipeline stage",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_verdicts_total",
			Help: "Total verification verdicts by status and reason",
		}, []string{"status", "reason"}),

		FaceDistance: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_face_distance",
			Help:    "Distance between selfie and ID photo as reported by face matching",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),

		VerifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_verify_duration_seconds",
			Help:    "Duration of a full verification including dispatch",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncVerdict records a terminal verdict.
func (m *Metrics) IncVerdict(status, reason string) {
	if m != nil {
		m.Verdicts.WithLabelValues(status, reason).Inc()
	}
}

// ObserveFaceDistance records a face match distance.
func (m *Metrics) ObserveFaceDistance(distance float64) {
	if m != nil {
		m.FaceDistance.Observe(distance)
	}
}

// ObserveVerify records the end-to-end duration.
func (m *Metrics) ObserveVerify(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
