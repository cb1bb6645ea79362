package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart operation outcomes and storage health.
type CartMetrics struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	storageFailures *prometheus.CounterVec
	hydrations      *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations partitioned by operation and result.",
	}, []string{"operation", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_operation_duration_seconds",
		Help:    "Duration of cart operations including persistence.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	storageFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_storage_failures_total",
		Help: "Failed reads, writes and deletes against the cart slot.",
	}, []string{"operation"})
	hydrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_hydrations_total",
		Help: "Cart hydrations partitioned by outcome.",
	}, []string{"result"})
	reg.MustRegister(operations, duration, storageFailures, hydrations)
	return &CartMetrics{
		operations:      operations,
		duration:        duration,
		storageFailures: storageFailures,
		hydrations:      hydrations,
	}
}

// ObserveOperation counts one cart operation and its latency.
func (c *CartMetrics) ObserveOperation(operation, result string, elapsed time.Duration) {
	if c == nil || c.operations == nil {
		return
	}
	operation = normalizeLabel(operation)
	c.operations.WithLabelValues(operation, normalizeLabel(result)).Inc()
	c.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncStorageFailure counts a failed slot operation (load, save, clear).
func (c *CartMetrics) IncStorageFailure(operation string) {
	if c == nil || c.storageFailures == nil {
		return
	}
	c.storageFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncHydration counts a hydration outcome.
func (c *CartMetrics) IncHydration(result string) {
	if c == nil || c.hydrations == nil {
		return
	}
	c.hydrations.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
