package httpapi

import (
	"time"

	"lookup-values/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "lookup_values"

// Metrics is a prometheus.Collector counting API operations by outcome.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics returns a new Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "operations_total",
				Help:      "The number of lookup operations by outcome.",
			}, []string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "operation_duration_seconds",
				Help:      "The time taken by a lookup operation, transaction included.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"},
		),
	}
}

// Observe records one finished operation.
func (m *Metrics) Observe(operation string, started time.Time, err error) {
	m.operations.WithLabelValues(operation, domain.Kind(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Describe is part of the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.operations.Describe(ch)
	m.duration.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.operations.Collect(ch)
	m.duration.Collect(ch)
}
