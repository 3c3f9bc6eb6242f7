package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	bookings        *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	httpRequests    *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		bookings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rental_bookings_total",
				Help: "Booking attempts by strategy and outcome",
			},
			[]string{"mode", "outcome"},
		),
		reconciliations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equipment_reconciliations_total",
				Help: "Admin quantity changes by outcome",
			},
			[]string{"outcome"},
		),
		httpRequests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	registry.MustRegister(
		m.bookings,
		m.reconciliations,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ObserveBooking(mode, outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) ObserveReconcile(outcome string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Observe(seconds)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
