package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
)

// Operation result labels.
const (
	resultOK      = "ok"
	resultInvalid = "invalid"
	resultError   = "error"
)

type storeMetrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rowsWritten prometheus.Counter
	rowsDeleted prometheus.Counter
}

// newStoreMetrics builds the store's collectors. A nil registerer leaves them
// unregistered but usable.
func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	f := promauto.With(reg)
	return &storeMetrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cyberweaver_store_operations_total",
			Help: "Total number of node store operations by operation and result.",
		}, []string{"op", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cyberweaver_store_operation_seconds",
			Help:    "Time spent in node store operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		rowsWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "cyberweaver_store_rows_written_total",
			Help: "Total number of node rows inserted or updated.",
		}),
		rowsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "cyberweaver_store_rows_deleted_total",
			Help: "Total number of node rows deleted.",
		}),
	}
}

// observe records one finished operation.
func (m *storeMetrics) observe(op string, start time.Time, err error) {
	result := resultOK
	switch {
	case err == nil:
	case errs.IsValidation(err):
		result = resultInvalid
	default:
		result = resultError
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
