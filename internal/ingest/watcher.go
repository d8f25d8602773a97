package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/ingestd/internal/logger"
	"github.com/marmos91/ingestd/internal/telemetry"
)

// WatcherConfig configures the stability-detection poll loop.
type WatcherConfig struct {
	IncomingRoot string
	PollInterval time.Duration
	MinFileAge   time.Duration
	// Extensions restricts scanning to files with one of these extensions
	// (lowercase, including the leading dot). An empty slice allows all
	// files.
	Extensions []string
}

// observation is the last (size, modtime) pair seen for a candidate file.
type observation struct {
	size    int64
	modTime time.Time
	first   time.Time
}

// Watcher polls incoming/ for files that have stopped changing: a file
// is considered stable once two consecutive observations, at least
// PollInterval apart, report the same size and mtime, and the mtime is
// older than MinFileAge.
type Watcher struct {
	cfg   WatcherConfig
	queue *Queue

	mu      sync.Mutex
	pending map[string]observation

	// consecutiveErrors counts scan cycles in a row that failed to read
	// IncomingRoot for a reason other than it not existing yet. Start is
	// the only goroutine that touches it, so it needs no locking.
	consecutiveErrors int

	wg sync.WaitGroup
}

// NewWatcher creates a Watcher that enqueues stable files onto queue.
func NewWatcher(cfg WatcherConfig, queue *Queue) *Watcher {
	return &Watcher{
		cfg:     cfg,
		queue:   queue,
		pending: make(map[string]observation),
	}
}

// Start runs the poll loop until ctx is cancelled, blocking the caller's
// goroutine. Call this from a goroutine tracked by the owning
// sync.WaitGroup. A scan that fails to read IncomingRoot for a reason
// other than it not existing yet is followed by an extra exponential
// backoff delay, capped at DefaultBackoff.Cap, before the next scan.
func (w *Watcher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.scan(ctx) {
				select {
				case <-time.After(DefaultBackoff.Delay(w.consecutiveErrors - 1)):
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// scan reads IncomingRoot once and reports whether the scan completed
// without an I/O error. A missing IncomingRoot (the session's incoming
// directory not yet created or already cleaned up) is treated as an
// empty directory rather than an error.
func (w *Watcher) scan(ctx context.Context) bool {
	start := time.Now()
	ctx, span := telemetry.StartSweepSpan(ctx, telemetry.SpanWatcherScan)
	defer span.End()

	entries, err := os.ReadDir(w.cfg.IncomingRoot)
	if err != nil {
		if os.IsNotExist(err) {
			w.consecutiveErrors = 0
			return true
		}
		w.consecutiveErrors++
		logger.WarnCtx(ctx, "watcher scan failed to read incoming root",
			"path", w.cfg.IncomingRoot, "error", err, "consecutive_errors", w.consecutiveErrors)
		return false
	}
	w.consecutiveErrors = 0

	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !w.extensionAllowed(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		seen[name] = struct{}{}
		w.observe(ctx, name, info)
	}

	// Drop pending entries for files that disappeared between scans —
	// either claimed by this watcher or removed out from under it.
	w.mu.Lock()
	for name := range w.pending {
		if _, ok := seen[name]; !ok {
			delete(w.pending, name)
		}
	}
	w.mu.Unlock()

	logger.DebugCtx(ctx, "watcher scan complete",
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
		"entries", len(entries))
	return true
}

func (w *Watcher) observe(ctx context.Context, name string, info os.FileInfo) {
	now := time.Now()
	size := info.Size()
	modTime := info.ModTime()

	w.mu.Lock()
	prev, existed := w.pending[name]
	if !existed {
		w.pending[name] = observation{size: size, modTime: modTime, first: now}
		w.mu.Unlock()
		return
	}

	stable := prev.size == size && prev.modTime.Equal(modTime) &&
		now.Sub(modTime) >= w.cfg.MinFileAge &&
		now.Sub(prev.first) >= w.cfg.PollInterval

	if !stable {
		w.pending[name] = observation{size: size, modTime: modTime, first: prev.first}
		w.mu.Unlock()
		return
	}
	delete(w.pending, name)
	w.mu.Unlock()

	item := WorkItem{
		Filename:     name,
		IncomingPath: filepath.Join(w.cfg.IncomingRoot, name),
		Size:         size,
		DetectedAt:   now,
	}

	if err := w.queue.Enqueue(ctx, item); err != nil {
		logger.WarnCtx(ctx, "watcher enqueue cancelled", "filename", name, "error", err)
	}
}

func (w *Watcher) extensionAllowed(name string) bool {
	if len(w.cfg.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range w.cfg.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
