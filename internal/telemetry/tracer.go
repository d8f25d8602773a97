package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for ingest pipeline spans.
const (
	AttrSessionName = "ingest.session_name"
	AttrDatePrefix  = "ingest.date_prefix"
	AttrFilename    = "ingest.filename"
	AttrPath        = "ingest.path"
	AttrSize        = "ingest.size"
	AttrStage       = "ingest.stage"
	AttrAttempt     = "ingest.attempt"

	AttrContainer = "blob.container"
	AttrBlobKey   = "blob.key"
	AttrAccount   = "blob.account"

	AttrQueueDepth = "queue.depth"
	AttrWorkerID   = "worker.id"
)

// Span names for ingest pipeline operations, matching the claim, stage,
// upload, mark, clean stages plus watcher, reaper and recovery sweeps.
const (
	SpanClaim   = "ingest.claim"
	SpanStage   = "ingest.stage"
	SpanUpload  = "ingest.upload"
	SpanMark    = "ingest.mark"
	SpanClean   = "ingest.clean"

	SpanWatcherScan  = "ingest.watcher.scan"
	SpanReaperSweep  = "ingest.reaper.sweep"
	SpanRecoveryScan = "ingest.recovery.scan"
)

// SessionName returns an attribute for the active ingest session name.
func SessionName(name string) attribute.KeyValue {
	return attribute.String(AttrSessionName, name)
}

// DatePrefix returns an attribute for a session's UTC date prefix.
func DatePrefix(date string) attribute.KeyValue {
	return attribute.String(AttrDatePrefix, date)
}

// Filename returns an attribute for the file under processing.
func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// Path returns an attribute for a filesystem path.
func Path(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// Size returns an attribute for a file size in bytes.
func Size(size int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, size)
}

// Stage returns an attribute for the current pipeline stage.
func Stage(stage string) attribute.KeyValue {
	return attribute.String(AttrStage, stage)
}

// Attempt returns an attribute for the current retry attempt.
func Attempt(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempt, n)
}

// Container returns an attribute for the Azure Blob container name.
func Container(name string) attribute.KeyValue {
	return attribute.String(AttrContainer, name)
}

// BlobKey returns an attribute for a blob name/key.
func BlobKey(key string) attribute.KeyValue {
	return attribute.String(AttrBlobKey, key)
}

// Account returns an attribute for the storage account name.
func Account(name string) attribute.KeyValue {
	return attribute.String(AttrAccount, name)
}

// QueueDepth returns an attribute for the current work queue depth.
func QueueDepth(depth int) attribute.KeyValue {
	return attribute.Int(AttrQueueDepth, depth)
}

// WorkerID returns an attribute for a worker goroutine index.
func WorkerID(id int) attribute.KeyValue {
	return attribute.Int(AttrWorkerID, id)
}

// StartPipelineSpan starts a span for one stage of a work item's
// claim->stage->upload->mark->clean pipeline.
func StartPipelineSpan(ctx context.Context, spanName, sessionName, filename string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		SessionName(sessionName),
		Filename(filename),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartSweepSpan starts a span for a periodic background sweep: the
// watcher's stability scan, the reaper's marker sweep, or the startup
// recovery scan.
func StartSweepSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, spanName, trace.WithAttributes(attrs...))
}
