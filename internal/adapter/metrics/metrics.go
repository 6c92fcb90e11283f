package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "xapi_bridge"

// IngestMetrics holds the Prometheus metrics of the ingest service.
type IngestMetrics struct {
	EventsTotal       *prometheus.CounterVec
	BytesTotal        prometheus.Counter
	WALActive         prometheus.Gauge
	APIKeyCacheHits   prometheus.Counter
	APIKeyCacheMisses prometheus.Counter
}

// NewIngestMetrics registers the ingest metrics with reg. Tests pass a
// fresh prometheus.NewRegistry() so repeated construction does not panic.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	f := promauto.With(reg)
	return &IngestMetrics{
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Total number of ingested LMS events by status.",
		}, []string{"status"}), // accepted, error_parse, error_size, error_buffer, error_media_type
		BytesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "bytes_total",
			Help:      "Total number of request bytes ingested.",
		}),
		WALActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "wal_active",
			Help:      "1 while events are written to the local WAL instead of Redis.",
		}),
		APIKeyCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "api_key_cache_hits_total",
			Help:      "Total number of API key cache hits.",
		}),
		APIKeyCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "api_key_cache_misses_total",
			Help:      "Total number of API key cache misses.",
		}),
	}
}

// TranslatorMetrics holds the Prometheus metrics of the translator worker.
type TranslatorMetrics struct {
	EventsTotal       *prometheus.CounterVec
	FallbacksTotal    *prometheus.CounterVec
	TransformDuration prometheus.Histogram
	SinkWritesTotal   *prometheus.CounterVec
	DeadLettersTotal  prometheus.Counter
}

// NewTranslatorMetrics registers the translator metrics with reg.
func NewTranslatorMetrics(reg prometheus.Registerer) *TranslatorMetrics {
	f := promauto.With(reg)
	return &TranslatorMetrics{
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translator",
			Name:      "events_total",
			Help:      "Events processed by the translator by outcome.",
		}, []string{"status"}), // translated, unsupported, malformed, failed
		FallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translator",
			Name:      "fallbacks_total",
			Help:      "Record lookups that missed and were replaced by a placeholder, by table.",
		}, []string{"table"}),
		TransformDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "translator",
			Name:      "transform_duration_seconds",
			Help:      "Time taken to translate a single event.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SinkWritesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translator",
			Name:      "sink_writes_total",
			Help:      "Statement batch writes by result.",
		}, []string{"status"}), // ok, retry, failed
		DeadLettersTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translator",
			Name:      "dead_letters_total",
			Help:      "Events moved to the dead-letter stream.",
		}),
	}
}
