package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/marmos91/ingestd/internal/logger"
	"github.com/marmos91/ingestd/internal/telemetry"
)

// RecoveryStats summarizes a startup recovery scan of .processing/.
type RecoveryStats struct {
	SessionsScanned int64
	FilesRequeued   int64
	FilesFailed     int64
}

// RecoverySession identifies the lexicographically-last (date, session)
// pair found under .processing/, which the caller resumes as the active
// session after a crash or restart.
type RecoverySession struct {
	DatePrefix string
	Name       string
}

// Recover walks .processing/<date>/<session>/ directories left behind by
// a prior run, re-enqueuing any file without a .completed marker onto
// queue with bounded parallelism, and returns the most recent session so
// the caller can resume it instead of starting a new one.
func Recover(ctx context.Context, processingRoot string, parallelism int, queue *Queue) (RecoverySession, RecoveryStats, error) {
	ctx, span := telemetry.StartSweepSpan(ctx, telemetry.SpanRecoveryScan)
	defer span.End()

	var stats RecoveryStats
	var latest RecoverySession

	dateDirs, err := os.ReadDir(processingRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return latest, stats, nil
		}
		return latest, stats, err
	}

	dateNames := make([]string, 0, len(dateDirs))
	for _, d := range dateDirs {
		if d.IsDir() {
			dateNames = append(dateNames, d.Name())
		}
	}
	sort.Strings(dateNames)

	if parallelism <= 0 {
		parallelism = 1
	}
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	var filesRequeued, filesFailed atomic.Int64

	for _, dateName := range dateNames {
		datePath := filepath.Join(processingRoot, dateName)
		sessionDirs, err := os.ReadDir(datePath)
		if err != nil {
			continue
		}

		sessionNames := make([]string, 0, len(sessionDirs))
		for _, s := range sessionDirs {
			if s.IsDir() {
				sessionNames = append(sessionNames, s.Name())
			}
		}
		sort.Strings(sessionNames)
		if len(sessionNames) == 0 {
			continue
		}

		latest = RecoverySession{DatePrefix: dateName, Name: sessionNames[len(sessionNames)-1]}
		stats.SessionsScanned += int64(len(sessionNames))

		for _, sessionName := range sessionNames {
			sessionPath := filepath.Join(datePath, sessionName)
			entries, err := os.ReadDir(sessionPath)
			if err != nil {
				continue
			}

			for _, entry := range entries {
				if entry.IsDir() || filepath.Ext(entry.Name()) == ".completed" {
					continue
				}
				completedMarker := filepath.Join(sessionPath, entry.Name()+".completed")
				markerInfo, err := statIfExists(ctx, completedMarker)
				if err != nil {
					continue // cancelled or unreadable; leave for the next recovery scan
				}
				if markerInfo != nil {
					continue // already uploaded, awaiting reaper sweep
				}

				info, err := entry.Info()
				if err != nil {
					continue
				}

				item := WorkItem{
					SessionName:    sessionName,
					DatePrefix:     dateName,
					Filename:       entry.Name(),
					ProcessingPath: filepath.Join(sessionPath, entry.Name()),
					Size:           info.Size(),
					AlreadyClaimed: true,
				}

				wg.Add(1)
				sem <- struct{}{}
				go func(item WorkItem) {
					defer wg.Done()
					defer func() { <-sem }()

					if err := queue.Enqueue(ctx, item); err != nil {
						filesFailed.Add(1)
						logger.WarnCtx(ctx, "recovery failed to requeue file",
							"session", item.SessionName, "filename", item.Filename, "error", err)
						return
					}
					filesRequeued.Add(1)
				}(item)
			}
		}
	}

	wg.Wait()
	stats.FilesRequeued = filesRequeued.Load()
	stats.FilesFailed = filesFailed.Load()

	logger.InfoCtx(ctx, "startup recovery scan complete",
		"sessions_scanned", stats.SessionsScanned,
		"files_requeued", stats.FilesRequeued,
		"files_failed", stats.FilesFailed)

	return latest, stats, nil
}
