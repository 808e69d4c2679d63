package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
)

// Metrics implements billing.Metrics using Prometheus.
type Metrics struct {
	operationsTotal         *prometheus.CounterVec
	operationDuration       *prometheus.HistogramVec
	paymentTransitionsTotal *prometheus.CounterVec
	sweepExpiredTotal       *prometheus.CounterVec
	sweepRunsTotal          *prometheus.CounterVec
	deliveryFailuresTotal   prometheus.Counter
}

// NewMetrics creates a new Prometheus metrics implementation for the billing service.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "operations_total",
			Help:      "Total number of billing operations by outcome.",
		}, []string{"operation", "outcome"}),

		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "operation_duration_seconds",
			Help:      "Duration of billing operations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		paymentTransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "payment_transitions_total",
			Help:      "Total number of payments leaving PENDING, by target status.",
		}, []string{"status"}),

		sweepExpiredTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "sweep_expired_total",
			Help:      "Total number of rows expired by the reaper.",
		}, []string{"kind"}),

		sweepRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "sweep_runs_total",
			Help:      "Total number of reaper passes.",
		}, []string{"kind"}),

		deliveryFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "notification_delivery_failures_total",
			Help:      "Total number of notifications that could not be delivered after commit.",
		}),
	}
}

func (m *Metrics) RecordOperation(op string, duration time.Duration, outcome string) {
	m.operationsTotal.WithLabelValues(op, outcome).Inc()
	m.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *Metrics) RecordPaymentTransition(to string) {
	m.paymentTransitionsTotal.WithLabelValues(to).Inc()
}

func (m *Metrics) RecordSweep(kind string, expired int) {
	m.sweepRunsTotal.WithLabelValues(kind).Inc()
	m.sweepExpiredTotal.WithLabelValues(kind).Add(float64(expired))
}

func (m *Metrics) RecordDeliveryFailure() {
	m.deliveryFailuresTotal.Inc()
}

// DefaultMetrics returns a Metrics implementation using the default Prometheus registerer.
func DefaultMetrics(namespace string) billing.Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, namespace)
}
