package observability

import (
	"github.com/aretw0/conshell/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Error kinds recorded by DispatchError.
const (
	KindUnknown    = "unknown"
	KindValidation = "validation"
	KindHandler    = "handler"
	KindTransition = "transition"
)

// Metrics groups the collectors of one shell instance.
type Metrics struct {
	registry    *prometheus.Registry
	commands    *prometheus.CounterVec
	errors      *prometheus.CounterVec
	connections *prometheus.GaugeVec
	received    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conshell_commands_dispatched_total",
				Help: "Total number of commands invoked",
			},
			[]string{"command"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conshell_dispatch_errors_total",
				Help: "Total number of errors reported by the dispatch engine",
			},
			[]string{"kind"},
		),
		connections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "conshell_connections",
				Help: "Currently connected remote clients",
			},
			[]string{"transport"},
		),
		received: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conshell_received_bytes_total",
				Help: "Bytes received from remote clients",
			},
			[]string{"transport"},
		),
	}
	m.registry.MustRegister(m.commands, m.errors, m.connections, m.received)
	return m
}

// Registry returns the Prometheus registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// CommandDispatched counts one handler invocation.
func (m *Metrics) CommandDispatched(command string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command).Inc()
}

// DispatchError counts one reported error of the given kind.
func (m *Metrics) DispatchError(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

// ConnectionOpened increments the live connection gauge.
func (m *Metrics) ConnectionOpened(kind domain.TransportKind) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(string(kind)).Inc()
}

// ConnectionClosed decrements the live connection gauge.
func (m *Metrics) ConnectionClosed(kind domain.TransportKind) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(string(kind)).Dec()
}

// BytesReceived adds n to the received byte counter.
func (m *Metrics) BytesReceived(kind domain.TransportKind, n int) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(string(kind)).Add(float64(n))
}
