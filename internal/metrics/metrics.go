// Package metrics provides the Prometheus registry and series used
// across the ingest pipeline. Series are registered once at package
// load so every component can use the accessors directly without a
// nil-check or a passed-in registry handle; Init only controls whether
// the /metrics HTTP endpoint is mounted.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var enabled atomic.Bool

var (
	filesProcessedTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "ingestd_files_processed_total",
		Help: "Total files processed by the ingest pipeline, labeled by outcome.",
	}, []string{"outcome"})

	uploadDurationMs = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "ingestd_upload_duration_milliseconds",
		Help:    "Blob upload duration in milliseconds.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})

	uploadBytesHist = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "ingestd_upload_bytes",
		Help:    "Size in bytes of uploaded blobs.",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})

	queueDepthGauge = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Name: "ingestd_queue_depth",
		Help: "Current depth of the bounded work queue.",
	})

	watcherScanDurationMs = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "ingestd_watcher_scan_duration_milliseconds",
		Help:    "Duration of one watcher stability-detection scan.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	benignGoneTotalCtr = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "ingestd_benign_gone_total",
		Help: "Total work items that vanished before claim and were skipped.",
	})

	reaperMarkersRemoved = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "ingestd_reaper_markers_removed_total",
		Help: "Total completion markers and their files removed by the reaper.",
	})

	stageDurationSeconds = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingestd_stage_duration_seconds",
		Help:    "Duration of one pipeline stage, labeled by stage name.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)

// Init marks metrics as enabled and returns the registry to mount behind
// the /metrics HTTP handler.
func Init() *prometheus.Registry {
	enabled.Store(true)
	return registry
}

// IsEnabled reports whether Init has been called.
func IsEnabled() bool {
	return enabled.Load()
}

// GetRegistry returns the package registry. Series are always
// registered against it regardless of IsEnabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// FilesProcessedTotal returns the counter for the given outcome
// ("ok" or "error").
func FilesProcessedTotal(outcome string) prometheus.Counter {
	return filesProcessedTotal.WithLabelValues(outcome)
}

// UploadDuration returns the upload-duration histogram.
func UploadDuration() prometheus.Histogram { return uploadDurationMs }

// UploadBytes returns the upload-size histogram.
func UploadBytes() prometheus.Histogram { return uploadBytesHist }

// QueueDepth returns the queue-depth gauge.
func QueueDepth() prometheus.Gauge { return queueDepthGauge }

// WatcherScanDuration returns the watcher scan-duration histogram.
func WatcherScanDuration() prometheus.Histogram { return watcherScanDurationMs }

// BenignGoneTotal returns the benign-gone counter.
func BenignGoneTotal() prometheus.Counter { return benignGoneTotalCtr }

// ReaperMarkersRemovedTotal returns the reaper-removed counter.
func ReaperMarkersRemovedTotal() prometheus.Counter { return reaperMarkersRemoved }

// StageDuration returns the per-stage duration histogram for stage.
func StageDuration(stage string) prometheus.Observer {
	return stageDurationSeconds.WithLabelValues(stage)
}
