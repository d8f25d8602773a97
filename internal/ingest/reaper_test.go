package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReaperFixture(t *testing.T, root string, markerAge time.Duration) (originalPath, markerPath string) {
	t.Helper()
	sessionDir := filepath.Join(root, "20260730", "sess1")
	require.NoError(t, os.MkdirAll(sessionDir, 0o755))

	originalPath = filepath.Join(sessionDir, "report.csv")
	markerPath = originalPath + ".completed"
	require.NoError(t, os.WriteFile(originalPath, []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(markerPath, []byte("ts"), 0o644))

	old := time.Now().Add(-markerAge)
	require.NoError(t, os.Chtimes(markerPath, old, old))
	return originalPath, markerPath
}

func TestReaperRemovesAgedMarkers(t *testing.T) {
	root := t.TempDir()
	originalPath, markerPath := setupReaperFixture(t, root, time.Hour)

	r := NewReaper(ReaperConfig{ProcessingRoot: root, Retention: time.Minute})
	r.sweep(context.Background())

	_, err := os.Stat(originalPath)
	assert.True(t, os.IsNotExist(err), "original file should be removed once marker ages past retention")
	_, err = os.Stat(markerPath)
	assert.True(t, os.IsNotExist(err), "marker should be removed alongside the original")
}

func TestReaperKeepsFreshMarkers(t *testing.T) {
	root := t.TempDir()
	originalPath, markerPath := setupReaperFixture(t, root, time.Second)

	r := NewReaper(ReaperConfig{ProcessingRoot: root, Retention: time.Hour})
	r.sweep(context.Background())

	_, err := os.Stat(originalPath)
	assert.NoError(t, err, "fresh marker must not be reaped yet")
	_, err = os.Stat(markerPath)
	assert.NoError(t, err)
}

func TestReaperRemovesEmptyDirsAfterSweep(t *testing.T) {
	root := t.TempDir()
	setupReaperFixture(t, root, time.Hour)

	r := NewReaper(ReaperConfig{ProcessingRoot: root, Retention: time.Minute})
	r.sweep(context.Background())

	_, err := os.Stat(filepath.Join(root, "20260730", "sess1"))
	assert.True(t, os.IsNotExist(err), "empty session dir should be removed")
	_, err = os.Stat(filepath.Join(root, "20260730"))
	assert.True(t, os.IsNotExist(err), "empty date dir should be removed")
}

func TestReaperIgnoresFilesWithoutMarker(t *testing.T) {
	root := t.TempDir()
	sessionDir := filepath.Join(root, "20260730", "sess1")
	require.NoError(t, os.MkdirAll(sessionDir, 0o755))
	path := filepath.Join(sessionDir, "in-progress.csv")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	r := NewReaper(ReaperConfig{ProcessingRoot: root, Retention: time.Nanosecond})
	r.sweep(context.Background())

	_, err := os.Stat(path)
	assert.NoError(t, err, "file without a completion marker must never be reaped")
}

func TestReaperMissingProcessingRootIsNotAnError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	r := NewReaper(ReaperConfig{ProcessingRoot: root, Retention: time.Minute})
	assert.NotPanics(t, func() { r.sweep(context.Background()) })
}

func TestReaperStartPerformsFinalSweepOnCancel(t *testing.T) {
	root := t.TempDir()
	originalPath, _ := setupReaperFixture(t, root, time.Hour)

	r := NewReaper(ReaperConfig{ProcessingRoot: root, Interval: time.Hour, Retention: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not exit after cancellation")
	}

	_, err := os.Stat(originalPath)
	assert.True(t, os.IsNotExist(err), "final sweep on shutdown should still reap aged markers")
}
