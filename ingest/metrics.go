package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	invocations        *prometheus.CounterVec
	batches            prometheus.Counter
	rowsRead           prometheus.Counter
	rowsDropped        prometheus.Counter
	rowsWritten        prometheus.Counter
	batchWriteDuration prometheus.Histogram
	sourceBytes        prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taxi_loader_invocations_total",
			Help: "Number of pipeline invocations by outcome.",
		}, []string{"outcome"}),
		batches: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxi_loader_batches_total",
			Help: "Number of record batches written to the destination.",
		}),
		rowsRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxi_loader_rows_read_total",
			Help: "Number of rows decoded from the source file.",
		}),
		rowsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxi_loader_rows_dropped_total",
			Help: "Number of rows dropped while cleaning.",
		}),
		rowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "taxi_loader_rows_written_total",
			Help: "Number of cleaned rows written to the destination.",
		}),
		batchWriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxi_loader_batch_write_duration_seconds",
			Help:    "Time spent writing one batch, including waiting for the load job.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		sourceBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "taxi_loader_source_bytes",
			Help: "Size of the last fetched source file.",
		}),
	}
}
