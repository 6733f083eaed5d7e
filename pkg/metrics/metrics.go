package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the chart service
type Metrics struct {
	Requests       *prometheus.CounterVec   // labels: method, route, status
	RequestLatency *prometheus.HistogramVec // labels: method, route
	Inputs         *prometheus.CounterVec   // labels: kind
	SignalErrors   prometheus.Counter
	Renders        prometheus.Counter
	StreamClients  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg gets a
// private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chart_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chart_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Inputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chart_inputs_total",
			Help: "Inputs forwarded to chart sessions by kind",
		}, []string{"kind"}),
		SignalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_signal_errors_total",
			Help: "Inputs that could not be delivered to a session",
		}),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_renders_total",
			Help: "Render queries answered",
		}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chart_stream_clients",
			Help: "Connected websocket clients",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Requests,
		m.RequestLatency,
		m.Inputs,
		m.SignalErrors,
		m.Renders,
		m.StreamClients,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
