// Package metrics expone contadores Prometheus del coordinador de ventas.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/backoffice-api/internal/application/sales"
)

var _ sales.Recorder = (*SalesMetrics)(nil)

// SalesMetrics implementa sales.Recorder con un registro propio.
type SalesMetrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	contention  *prometheus.CounterVec
}

// NewSalesMetrics registra los contadores y los collectors de proceso y runtime.
func NewSalesMetrics(namespace string) *SalesMetrics {
	reg := prometheus.NewRegistry()
	m := &SalesMetrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "transitions_total",
			Help:      "Operaciones del ciclo de vida de ventas por resultado.",
		}, []string{"op", "outcome"}),
		contention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "contention_retries_total",
			Help:      "Reintentos por bloqueo no obtenido a tiempo.",
		}, []string{"op"}),
	}
	reg.MustRegister(
		m.transitions,
		m.contention,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Transition cuenta una operación terminada.
func (m *SalesMetrics) Transition(op, outcome string) {
	m.transitions.WithLabelValues(op, outcome).Inc()
}

// Contention cuenta un reintento por contención.
func (m *SalesMetrics) Contention(op string) {
	m.contention.WithLabelValues(op).Inc()
}

// Handler endpoint /metrics del registro.
func (m *SalesMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
