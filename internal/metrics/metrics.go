// Package metrics регистрирует счётчики Prometheus сервиса bizdesk.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics группирует счётчики предметной области.
type Metrics struct {
	SearchRequests    *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	PaymentsRecorded  prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New создаёт и регистрирует счётчики в reg (по умолчанию — в глобальном реестре).
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search requests by result source.",
		}, []string{"source"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_status_transitions_total",
			Help:      "Automatic document status transitions.",
		}, []string{"document", "to"}),
		PaymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments recorded against invoices.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.SearchRequests = register(reg, m.SearchRequests)
	m.StatusTransitions = register(reg, m.StatusTransitions)
	m.PaymentsRecorded = register(reg, m.PaymentsRecorded)
	m.HTTPRequests = register(reg, m.HTTPRequests)
	m.HTTPDuration = register(reg, m.HTTPDuration)
	return m
}

// register регистрирует коллектор, а при повторной регистрации возвращает уже существующий.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Nop возвращает счётчики, не привязанные ни к какому реестру.
func Nop() *Metrics {
	return New("nop", prometheus.NewRegistry())
}
