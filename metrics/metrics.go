// Package metrics exposes Prometheus collectors for the store, the
// importer and the HTTP layer. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "customerdash"

// Metrics groups every collector the service publishes.
type Metrics struct {
	storeMutations  *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	records         prometheus.Gauge
	importRows      *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		storeMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Customer store mutations by operation.",
		}, []string{"op"}),
		persistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "Failed writes to the persistence backend by key.",
		}, []string{"key"}),
		records: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records",
			Help:      "Customer records currently held in memory.",
		}),
		importRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Spreadsheet rows seen by the importer by result.",
		}, []string{"result"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// StoreMutation counts one applied mutation and updates the record gauge.
func (m *Metrics) StoreMutation(op string, records int) {
	if m == nil {
		return
	}
	m.storeMutations.WithLabelValues(op).Inc()
	m.records.Set(float64(records))
}

// SetRecords updates the record gauge after a load.
func (m *Metrics) SetRecords(records int) {
	if m == nil {
		return
	}
	m.records.Set(float64(records))
}

// PersistFailure counts one failed write.
func (m *Metrics) PersistFailure(key string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(key).Inc()
}

// ImportRows counts accepted and rejected rows of one import.
func (m *Metrics) ImportRows(accepted, rejected int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues("accepted").Add(float64(accepted))
	m.importRows.WithLabelValues("rejected").Add(float64(rejected))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
