package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the ingest pipeline.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Session & Pipeline Stage
	// ========================================================================
	KeySessionName = "session_name" // Ingest session name
	KeyDatePrefix  = "date_prefix"  // UTC YYYYMMDD date prefix for a session
	KeyStage       = "stage"        // Pipeline stage: claim, stage, upload, mark, clean

	// ========================================================================
	// File System Operations
	// ========================================================================
	KeyPath     = "path"     // Full file/directory path
	KeyFilename = "filename" // File or directory name (basename)
	KeyOldPath  = "old_path" // Source path for rename/move operations
	KeyNewPath  = "new_path" // Destination path for rename/move operations
	KeySize     = "size"     // File size in bytes

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeySource     = "source"      // Component reporting the log line
	KeyOperation  = "operation"   // Sub-operation name

	// ========================================================================
	// Blob Storage Backend
	// ========================================================================
	KeyContainer  = "container"   // Azure Blob container name
	KeyBlobKey    = "blob_key"    // Blob name/key
	KeyAccount    = "account"     // Storage account name
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts

	// ========================================================================
	// Queue & Worker
	// ========================================================================
	KeyQueueDepth = "queue_depth" // Current work queue depth
	KeyWorkerID   = "worker_id"   // Worker goroutine index
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// SessionName returns a slog.Attr for the ingest session name
func SessionName(name string) slog.Attr {
	return slog.String(KeySessionName, name)
}

// DatePrefix returns a slog.Attr for a session's UTC date prefix
func DatePrefix(date string) slog.Attr {
	return slog.String(KeyDatePrefix, date)
}

// Stage returns a slog.Attr for the current pipeline stage
func Stage(stage string) slog.Attr {
	return slog.String(KeyStage, stage)
}

// Path returns a slog.Attr for a file/directory path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Filename returns a slog.Attr for a filename (basename)
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// OldPath returns a slog.Attr for the source path in a rename/move
func OldPath(p string) slog.Attr {
	return slog.String(KeyOldPath, p)
}

// NewPath returns a slog.Attr for the destination path in a rename/move
func NewPath(p string) slog.Attr {
	return slog.String(KeyNewPath, p)
}

// Size returns a slog.Attr for a file size in bytes
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error value
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Source returns a slog.Attr identifying the reporting component
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// Operation returns a slog.Attr for a sub-operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Container returns a slog.Attr for the Azure Blob container name
func Container(name string) slog.Attr {
	return slog.String(KeyContainer, name)
}

// BlobKey returns a slog.Attr for a blob name/key
func BlobKey(key string) slog.Attr {
	return slog.String(KeyBlobKey, key)
}

// Account returns a slog.Attr for the storage account name
func Account(name string) slog.Attr {
	return slog.String(KeyAccount, name)
}

// Attempt returns a slog.Attr for the current retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempt count
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// QueueDepth returns a slog.Attr for the current work queue depth
func QueueDepth(depth int) slog.Attr {
	return slog.Int(KeyQueueDepth, depth)
}

// WorkerID returns a slog.Attr for a worker goroutine index
func WorkerID(id int) slog.Attr {
	return slog.Int(KeyWorkerID, id)
}
