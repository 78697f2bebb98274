package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	samplePersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "healthbridge",
		Subsystem: "persistence",
		Name:      "last_sample_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent health sample persisted to Postgres.",
	})
	ingestGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "healthbridge",
		Subsystem: "persistence",
		Name:      "last_ingest_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout or sleep session ingested, by kind.",
	}, []string{"kind"})

	operationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "plugin",
		Name:      "operations_total",
		Help:      "Health contract operations by operation, platform and outcome (ok or error kind).",
	}, []string{"operation", "platform", "outcome"})

	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "healthbridge",
		Subsystem: "plugin",
		Name:      "operation_duration_seconds",
		Help:      "Latency of health contract operations.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"operation", "platform"})
)

func init() {
	prometheus.MustRegister(samplePersistGauge, ingestGauge, operationCounter, operationDuration)
}

// RecordSamplePersisted updates the persistence watermark gauge.
func RecordSamplePersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	samplePersistGauge.Set(float64(ts.Unix()))
}

// RecordIngest updates the ingest watermark for kind ("workout" or "sleep").
func RecordIngest(kind string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	ingestGauge.WithLabelValues(kind).Set(float64(ts.Unix()))
}
