package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	opExport = "export"
	opImport = "import"
)

// Metrics holds Prometheus metrics for store operations. All methods are
// safe on a nil receiver so the store can run unmetered.
type Metrics struct {
	operationsTotal *prometheus.CounterVec
	recordsAdded    prometheus.Counter
	recordsTotal    prometheus.Gauge
}

// NewMetrics creates and registers the store metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordkit_store_operations_total",
				Help: "Total number of export/import operations by codec and status",
			},
			[]string{"operation", "format", "status"},
		),
		recordsAdded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recordkit_store_records_added_total",
				Help: "Total number of records appended to the store",
			},
		),
		recordsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "recordkit_store_records",
				Help: "Current number of records held by the store",
			},
		),
	}
}

// RecordOp counts one export or import outcome.
func (m *Metrics) RecordOp(operation, format, status string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, format, status).Inc()
}

// RecordAdd counts one appended record.
func (m *Metrics) RecordAdd() {
	if m == nil {
		return
	}
	m.recordsAdded.Inc()
}

// SetRecords updates the record count gauge.
func (m *Metrics) SetRecords(n int) {
	if m == nil {
		return
	}
	m.recordsTotal.Set(float64(n))
}
