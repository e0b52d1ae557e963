// Package metrics provides Prometheus instrumentation for transfers.
//
// A nil *Metrics is valid and records nothing, so callers can pass nil when
// no registerer is configured and pay no overhead.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend operation names used as label values.
const (
	OpInitiate   = "initiate"
	OpUploadPart = "upload_part"
	OpCopyPart   = "copy_part"
	OpComplete   = "complete"
	OpAbort      = "abort"
	OpPutWhole   = "put_whole"
	OpCopyWhole  = "copy_whole"
	OpStat       = "stat"
)

// Metrics holds the transfer collectors.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
	transfersTotal    *prometheus.CounterVec
	activeSessions    prometheus.Gauge
	partsPerTransfer  prometheus.Histogram
	abortsTotal       prometheus.Counter
	abortFailures     prometheus.Counter
}

// New registers the transfer collectors with reg.
//
// Returns nil if reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	return &Metrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfer_backend_operations_total",
				Help: "Total number of backend calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "transfer_backend_operation_duration_milliseconds",
				Help: "Duration of backend calls in milliseconds",
				Buckets: []float64{
					10,    // 10ms - session bookkeeping
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms - small parts
					1000,  // 1s
					5000,  // 5s - large parts
					10000, // 10s
					30000, // 30s - server-side copies of large ranges
				},
			},
			[]string{"operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfer_bytes_total",
				Help: "Total bytes uploaded or copied by operation",
			},
			[]string{"operation"},
		),
		transfersTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfer_transfers_total",
				Help: "Total number of transfers by kind, path and status",
			},
			[]string{"kind", "path", "status"},
		),
		activeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "transfer_active_sessions",
				Help: "Current number of open multipart sessions",
			},
		),
		partsPerTransfer: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transfer_parts_per_session",
				Help:    "Distribution of the number of parts per completed session",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 500, 1000, 10000},
			},
		),
		abortsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "transfer_sessions_aborted_total",
				Help: "Total number of multipart sessions aborted after a failure",
			},
		),
		abortFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "transfer_abort_failures_total",
				Help: "Total number of abort calls that failed and may have left parts behind",
			},
		),
	}
}

// ObserveOperation records a backend call with its duration and outcome.
func (m *Metrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.operationsTotal.WithLabelValues(operation, status(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds() * 1000)
}

// RecordBytes adds to the bytes transferred by operation.
func (m *Metrics) RecordBytes(operation string, bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(operation).Add(float64(bytes))
}

// RecordTransfer records a finished SaveStream or CopyObject call.
func (m *Metrics) RecordTransfer(kind, path string, err error) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(kind, path, status(err)).Inc()
}

// SessionOpened increments the open session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionClosed decrements the open session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// ObserveParts records the part count of a completed session.
func (m *Metrics) ObserveParts(parts int) {
	if m == nil {
		return
	}
	m.partsPerTransfer.Observe(float64(parts))
}

// RecordAbort records a cleanup abort and whether it failed.
func (m *Metrics) RecordAbort(err error) {
	if m == nil {
		return
	}
	m.abortsTotal.Inc()
	if err != nil {
		m.abortFailures.Inc()
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
