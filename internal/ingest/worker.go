package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/marmos91/ingestd/internal/blobstore"
	"github.com/marmos91/ingestd/internal/logger"
	"github.com/marmos91/ingestd/internal/metrics"
	"github.com/marmos91/ingestd/internal/telemetry"
)

// WorkerPoolConfig configures the worker pool's pipeline behavior.
type WorkerPoolConfig struct {
	Count             int
	ProcessingRoot    string
	StagingRoot       string
	UploadConcurrency int
	MaxAttempts       int
}

// WorkerPool runs Count goroutines that each pull WorkItems off a Queue
// and drive them through claim -> stage -> upload -> mark -> clean.
type WorkerPool struct {
	cfg     WorkerPoolConfig
	queue   *Queue
	store   blobstore.Store
	session *Session

	uploadSem chan struct{}
	wg        sync.WaitGroup
}

// NewWorkerPool creates a WorkerPool bound to session and drawing work
// from queue, uploading via store.
func NewWorkerPool(cfg WorkerPoolConfig, queue *Queue, store blobstore.Store, session *Session) *WorkerPool {
	if cfg.UploadConcurrency <= 0 {
		cfg.UploadConcurrency = cfg.Count
	}
	return &WorkerPool{
		cfg:       cfg,
		queue:     queue,
		store:     store,
		session:   session,
		uploadSem: make(chan struct{}, cfg.UploadConcurrency),
	}
}

// Start launches the worker goroutines. Call Wait to block until they
// all exit after ctx is cancelled and the queue drains.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Wait blocks until all worker goroutines have exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

func (p *WorkerPool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		item, ok := p.queue.Dequeue(ctx)
		if !ok {
			return
		}
		p.process(ctx, id, item)
	}
}

func (p *WorkerPool) process(ctx context.Context, workerID int, item WorkItem) {
	// Recovered items keep the session and date taken from their
	// .processing/ path; watcher items inherit the pool's session.
	if item.SessionName == "" {
		item.SessionName = p.session.Name
	}
	if item.DatePrefix == "" {
		item.DatePrefix = p.session.DatePrefix
	}

	lc := logger.NewLogContext(item.SessionName, item.DatePrefix, item.Filename)
	ctx = logger.WithContext(ctx, lc)

	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(DefaultBackoff.Delay(attempt - 1)):
			case <-ctx.Done():
				return
			}
		}

		err := p.runPipeline(ctx, workerID, &item, attempt)
		if err == nil {
			p.session.RecordSuccess()
			metrics.FilesProcessedTotal("ok").Inc()
			return
		}

		if isBenignGone(err) {
			logger.InfoCtx(ctx, "work item vanished before claim, treating as benign",
				"filename", item.Filename)
			metrics.BenignGoneTotal().Inc()
			return
		}

		logger.WarnCtx(ctx, "pipeline stage failed, will retry",
			"filename", item.Filename, "attempt", attempt, "error", err)

		if attempt == p.cfg.MaxAttempts-1 {
			p.session.RecordFailure(err)
			metrics.FilesProcessedTotal("error").Inc()
			logger.ErrorCtx(ctx, "pipeline exhausted retries", "filename", item.Filename, "error", err)
		}
	}
}

// benignGoneError marks an error as "the file is gone and that's fine" —
// another worker or an operator removed it between watcher detection and
// claim.
type benignGoneError struct{ err error }

func (e *benignGoneError) Error() string { return e.err.Error() }
func (e *benignGoneError) Unwrap() error { return e.err }

func isBenignGone(err error) bool {
	var bg *benignGoneError
	return errors.As(err, &bg)
}

func (p *WorkerPool) runPipeline(ctx context.Context, workerID int, item *WorkItem, attempt int) error {
	stages := []struct {
		name string
		fn   func(context.Context, *WorkItem) error
	}{
		{"claim", p.claim},
		{"stage", p.stage},
		{"upload", p.upload},
		{"mark", p.mark},
		{"clean", p.clean},
	}

	for _, s := range stages {
		if s.name == "claim" && item.AlreadyClaimed {
			continue
		}
		ctx, span := telemetry.StartPipelineSpan(ctx, "ingest."+s.name, item.SessionName, item.Filename,
			telemetry.Attempt(attempt), telemetry.WorkerID(workerID))
		start := time.Now()
		err := s.fn(ctx, item)
		span.End()
		if err != nil {
			telemetry.RecordError(ctx, err)
			return fmt.Errorf("%s: %w", s.name, err)
		}
		metrics.StageDuration(s.name).Observe(time.Since(start).Seconds())
	}
	return nil
}

func (p *WorkerPool) claim(ctx context.Context, item *WorkItem) error {
	dir := filepath.Join(p.cfg.ProcessingRoot, item.DatePrefix, item.SessionName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create processing dir: %w", err)
	}
	item.ProcessingPath = filepath.Join(dir, item.Filename)

	if err := renameClaim(ctx, item.IncomingPath, item.ProcessingPath); err != nil {
		if os.IsNotExist(err) {
			return &benignGoneError{err}
		}
		return err
	}
	item.AlreadyClaimed = true
	return nil
}

func (p *WorkerPool) stage(ctx context.Context, item *WorkItem) error {
	dir := filepath.Join(p.cfg.StagingRoot, item.SessionName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	item.StagingPath = filepath.Join(dir, item.Filename)

	return abandonOnCancel(ctx, func() error {
		src, err := os.Open(item.ProcessingPath)
		if err != nil {
			return fmt.Errorf("open processing file: %w", err)
		}
		defer src.Close()

		dst, err := os.Create(item.StagingPath)
		if err != nil {
			return fmt.Errorf("create staging file: %w", err)
		}
		defer dst.Close()

		if _, err := io.Copy(dst, src); err != nil {
			return fmt.Errorf("copy to staging: %w", err)
		}
		return dst.Sync()
	})
}

func (p *WorkerPool) upload(ctx context.Context, item *WorkItem) error {
	select {
	case p.uploadSem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.uploadSem }()

	f, err := os.Open(item.StagingPath)
	if err != nil {
		return fmt.Errorf("open staging file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat staging file: %w", err)
	}

	blobName := fmt.Sprintf("%s/%s/%s", item.DatePrefix, item.SessionName, item.Filename)
	start := time.Now()
	if err := p.store.Upload(ctx, blobName, f, info.Size()); err != nil {
		return fmt.Errorf("upload blob: %w", err)
	}
	metrics.UploadDuration().Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	metrics.UploadBytes().Observe(float64(info.Size()))
	return nil
}

func (p *WorkerPool) mark(ctx context.Context, item *WorkItem) error {
	markerPath := item.ProcessingPath + ".completed"
	return abandonOnCancel(ctx, func() error {
		return os.WriteFile(markerPath, []byte(time.Now().UTC().Format(time.RFC3339)), 0o644)
	})
}

// clean removes the local staging copy now that the upload is durable.
// The processing-dir original and its .completed marker are left in
// place; the reaper removes those once they age past its retention
// window, giving operators a window to inspect completed work.
func (p *WorkerPool) clean(ctx context.Context, item *WorkItem) error {
	if err := removeIfExists(ctx, item.StagingPath); err != nil {
		return fmt.Errorf("remove staging copy: %w", err)
	}
	return nil
}
