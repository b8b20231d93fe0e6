// Package metric provides Prometheus metrics for respkv.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every respkv metric name.
const Namespace = "respkv"

// Registry holds all application metrics.
type Registry struct {
	// Connection metrics
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	AcceptErrors      prometheus.Counter
	AdmissionWaitTime prometheus.Histogram

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	ProtocolErrors  prometheus.Counter

	reg *prometheus.Registry
}

// NewRegistry creates the application metrics on a fresh Prometheus
// registry, together with the Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "connections_active",
			Help:      "Number of client connections currently being served",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Total number of accepted client connections",
		}),
		AcceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "accept_errors_total",
			Help:      "Total number of failed accept calls",
		}),
		AdmissionWaitTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "admission_wait_seconds",
			Help:      "Time the accept loop waited for a free connection slot",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 10, 7),
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "commands_total",
			Help:      "Total number of executed commands by name",
		}, []string{"command"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "command_duration_seconds",
			Help:      "Command execution latency including the reply write",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"command"}),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "server",
			Name:      "protocol_errors_total",
			Help:      "Connections closed because of malformed requests",
		}),
		reg: reg,
	}

	reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.AcceptErrors,
		r.AdmissionWaitTime,
		r.CommandsTotal,
		r.CommandDuration,
		r.ProtocolErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Registerer returns the underlying registry so other components (the
// store) can add their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer returns the underlying registry for exposition and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
