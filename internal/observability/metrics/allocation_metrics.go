package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the const labels stamped onto every metric.
type Config struct {
	ServiceName string
	Environment string
}

type AllocationMetrics struct {
	allocationsTotal      *prometheus.CounterVec
	allocationFailures    *prometheus.CounterVec
	cancellationsTotal    prometheus.Counter
	packagesPerBatch      prometheus.Histogram
	allocatedAmountByCcy  *prometheus.CounterVec
	outboxEventsDelivered *prometheus.CounterVec
}

var (
	allocationMetricsOnce sync.Once
	allocationMetrics     *AllocationMetrics
)

func Allocation() *AllocationMetrics {
	return AllocationWithConfig(Config{})
}

func AllocationWithConfig(cfg Config) *AllocationMetrics {
	allocationMetricsOnce.Do(func() {
		allocationMetrics = newAllocationMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return allocationMetrics
}

func ResetAllocationMetricsForTest() {
	allocationMetricsOnce = sync.Once{}
	allocationMetrics = nil
}

func newAllocationMetrics(registerer prometheus.Registerer, cfg Config) *AllocationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "exios"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	allocationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "exios_payment_allocations_total",
			Help:        "Total payment allocation batches by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // settled | rejected | failed
	)

	allocationFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "exios_payment_allocation_failures_total",
			Help:        "Allocation precondition rejections by reason.",
			ConstLabels: constLabels,
		},
		[]string{"reason"},
	)

	cancellationsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "exios_payment_cancellations_total",
			Help:        "Total order payments reversed.",
			ConstLabels: constLabels,
		},
	)

	packagesPerBatch := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "exios_payment_allocation_batch_packages",
			Help:        "Packages settled per allocation batch.",
			Buckets:     []float64{1, 2, 3, 5, 8, 13, 21, 34},
			ConstLabels: constLabels,
		},
	)

	allocatedAmountByCcy := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "exios_payment_allocated_amount_total",
			Help:        "Declared funds consumed by allocation batches, per currency.",
			ConstLabels: constLabels,
		},
		[]string{"currency"},
	)

	outboxEventsDelivered := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "exios_ops_events_delivered_total",
			Help:        "Outbox events relayed to the broadcast sender by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // sent | failed
	)

	registerer.MustRegister(
		allocationsTotal,
		allocationFailures,
		cancellationsTotal,
		packagesPerBatch,
		allocatedAmountByCcy,
		outboxEventsDelivered,
	)

	return &AllocationMetrics{
		allocationsTotal:      allocationsTotal,
		allocationFailures:    allocationFailures,
		cancellationsTotal:    cancellationsTotal,
		packagesPerBatch:      packagesPerBatch,
		allocatedAmountByCcy:  allocatedAmountByCcy,
		outboxEventsDelivered: outboxEventsDelivered,
	}
}

func (m *AllocationMetrics) RecordBatchSettled(packages int, amountUSD, amountLYD float64) {
	if m == nil {
		return
	}
	m.allocationsTotal.WithLabelValues("settled").Inc()
	m.packagesPerBatch.Observe(float64(packages))
	if amountUSD > 0 {
		m.allocatedAmountByCcy.WithLabelValues("USD").Add(amountUSD)
	}
	if amountLYD > 0 {
		m.allocatedAmountByCcy.WithLabelValues("LYD").Add(amountLYD)
	}
}

func (m *AllocationMetrics) RecordBatchRejected(reason string) {
	if m == nil {
		return
	}
	m.allocationsTotal.WithLabelValues("rejected").Inc()
	m.allocationFailures.WithLabelValues(reason).Inc()
}

func (m *AllocationMetrics) RecordBatchFailed() {
	if m == nil {
		return
	}
	m.allocationsTotal.WithLabelValues("failed").Inc()
}

func (m *AllocationMetrics) RecordCancellation() {
	if m == nil {
		return
	}
	m.cancellationsTotal.Inc()
}

func (m *AllocationMetrics) RecordEventDelivery(result string) {
	if m == nil {
		return
	}
	m.outboxEventsDelivered.WithLabelValues(result).Inc()
}
