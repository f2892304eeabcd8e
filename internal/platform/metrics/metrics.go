package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds process-level HTTP metrics shared by every handler.
type Metrics struct {
	registry    *prometheus.Registry
	HTTPLatency *prometheus.HistogramVec
}

// New creates a registry with the Go and process collectors plus HTTP latency.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Metrics{
		registry: reg,
		HTTPLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idv_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// Registerer exposes the registry so bounded contexts register their own collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one request.
func (m *Metrics) ObserveHTTP(route, status string, seconds float64) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(route, status).Observe(seconds)
	}
}
