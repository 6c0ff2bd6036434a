package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for backend calls.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Errors   *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors on reg. Pass
// prometheus.NewRegistry() in tests to avoid clashing with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewdesk_backend_requests_total",
			Help: "Total number of backend requests by operation and status code",
		}, []string{"op", "code"}),

		// Query answers can take tens of seconds while the model generates.
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reviewdesk_backend_request_duration_seconds",
			Help:    "Backend request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"op"}),

		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewdesk_backend_errors_total",
			Help: "Total number of failed backend requests by kind",
		}, []string{"op", "kind"}),
	}
}

func (m *Metrics) observe(op, code string, seconds float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(op, code).Inc()
	m.Latency.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) fail(op, kind string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(op, kind).Inc()
}
