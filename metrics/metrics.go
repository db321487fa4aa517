// Package metrics exposes Prometheus counters for decode and encode sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for record sessions. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RowsDecoded           prometheus.Counter
	RowsEncoded           prometheus.Counter
	RowsSkipped           prometheus.Counter
	RowErrors             *prometheus.CounterVec
	IntrospectionAttempts prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	rowsDecoded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tabcodec_rows_decoded_total",
		Help: "Total rows decoded into records",
	})

	rowsEncoded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tabcodec_rows_encoded_total",
		Help: "Total records encoded into rows",
	})

	rowsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tabcodec_rows_skipped_total",
		Help: "Total rows skipped because they failed to decode",
	})

	rowErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tabcodec_row_errors_total",
		Help: "Row decode failures by error class",
	}, []string{"class"})

	attempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tabcodec_introspection_attempts",
		Help:    "Probe decodes needed before a schema stabilized",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})

	reg.MustRegister(rowsDecoded, rowsEncoded, rowsSkipped, rowErrors, attempts)

	return &Metrics{
		RowsDecoded:           rowsDecoded,
		RowsEncoded:           rowsEncoded,
		RowsSkipped:           rowsSkipped,
		RowErrors:             rowErrors,
		IntrospectionAttempts: attempts,
	}
}

func (m *Metrics) Decoded() {
	if m != nil {
		m.RowsDecoded.Inc()
	}
}

func (m *Metrics) Encoded() {
	if m != nil {
		m.RowsEncoded.Inc()
	}
}

// Skipped counts a row dropped in skip mode under its error class.
func (m *Metrics) Skipped(class string) {
	if m != nil {
		m.RowsSkipped.Inc()
		m.RowErrors.WithLabelValues(class).Inc()
	}
}

// Failed counts a row error that aborted the batch.
func (m *Metrics) Failed(class string) {
	if m != nil {
		m.RowErrors.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) Introspected(attempts int) {
	if m != nil {
		m.IntrospectionAttempts.Observe(float64(attempts))
	}
}
