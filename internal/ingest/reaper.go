package ingest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/marmos91/ingestd/internal/logger"
	"github.com/marmos91/ingestd/internal/metrics"
	"github.com/marmos91/ingestd/internal/telemetry"
)

// ReaperConfig configures the periodic completion-marker cleanup sweep.
type ReaperConfig struct {
	ProcessingRoot string
	Interval       time.Duration
	Retention      time.Duration
}

// Reaper periodically walks .processing/ and removes files whose
// .completed marker has aged past Retention, then removes any empty
// session/date directories left behind.
type Reaper struct {
	cfg ReaperConfig
}

// NewReaper creates a Reaper with the given configuration.
func NewReaper(cfg ReaperConfig) *Reaper {
	return &Reaper{cfg: cfg}
}

// Start runs the sweep loop until ctx is cancelled, performing one final
// sweep before returning so markers aged out during the last interval
// are not left behind across a restart.
func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.sweep(context.Background())
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	ctx, span := telemetry.StartSweepSpan(ctx, telemetry.SpanReaperSweep)
	defer span.End()

	removed := 0
	cutoff := time.Now().Add(-r.cfg.Retention)

	dateDirs, err := os.ReadDir(r.cfg.ProcessingRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCtx(ctx, "reaper failed to read processing root", "error", err)
		}
		return
	}

	for _, dateDir := range dateDirs {
		if !dateDir.IsDir() {
			continue
		}
		datePath := filepath.Join(r.cfg.ProcessingRoot, dateDir.Name())

		sessionDirs, err := os.ReadDir(datePath)
		if err != nil {
			continue
		}
		for _, sessionDir := range sessionDirs {
			if !sessionDir.IsDir() {
				continue
			}
			sessionPath := filepath.Join(datePath, sessionDir.Name())
			removed += r.reapSession(ctx, sessionPath, cutoff)
			removeEmptyDir(sessionPath)
		}
		removeEmptyDir(datePath)
	}

	if removed > 0 {
		metrics.ReaperMarkersRemovedTotal().Add(float64(removed))
		logger.InfoCtx(ctx, "reaper swept completion markers", "removed", removed)
	}
}

func (r *Reaper) reapSession(ctx context.Context, sessionPath string, cutoff time.Time) int {
	entries, err := os.ReadDir(sessionPath)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != ".completed" {
			continue
		}

		markerPath := filepath.Join(sessionPath, name)
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		originalPath := markerPath[:len(markerPath)-len(".completed")]
		if err := removeIfExists(ctx, originalPath); err != nil {
			logger.WarnCtx(ctx, "reaper failed to remove processed file", "path", originalPath, "error", err)
			continue
		}
		if err := removeIfExists(ctx, markerPath); err != nil {
			logger.WarnCtx(ctx, "reaper failed to remove marker", "path", markerPath, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// removeEmptyDir removes dir if it contains no entries. Errors are
// ignored: a non-empty or already-gone directory is not a failure.
func removeEmptyDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	_ = os.Remove(dir)
}
