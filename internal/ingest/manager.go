package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/marmos91/ingestd/internal/blobstore"
	"github.com/marmos91/ingestd/internal/logger"
	"github.com/marmos91/ingestd/internal/metrics"
)

// ErrSessionActive is returned by StartSession when a session is already
// running.
var ErrSessionActive = errors.New("a session is already active")

// ErrNoActiveSession is returned by StopSession when no session is
// running.
var ErrNoActiveSession = errors.New("no active session")

// ManagerConfig collects the settings Manager needs to start a session's
// watcher and worker pool.
type ManagerConfig struct {
	IncomingRoot   string
	ProcessingRoot string
	StagingRoot    string

	QueueCapacity int

	Watcher WatcherConfig
	Worker  WorkerPoolConfig
	Reaper  ReaperConfig

	RecoveryParallelism int
}

// Manager owns the lifecycle of the active ingest session: starting and
// stopping its watcher, queue and worker pool, running startup recovery,
// and running the reaper for the process lifetime independent of any one
// session. It implements handlers.SessionController.
type Manager struct {
	cfg   ManagerConfig
	store blobstore.Store

	mu sync.Mutex

	session *Session
	queue   *Queue

	// workCancel stops the worker pool and the session's queue-depth
	// ticker. It is only invoked on full process shutdown, so in-flight
	// and queued work survives a StopSession call.
	workCancel context.CancelFunc
	// watcherCancel stops only the watcher, so StopSession can halt new
	// enqueues without tearing down the pool draining the queue.
	watcherCancel context.CancelFunc

	wg sync.WaitGroup

	reaperCancel context.CancelFunc
	ready        bool
}

// NewManager creates a Manager that uploads via store.
func NewManager(cfg ManagerConfig, store blobstore.Store) *Manager {
	return &Manager{cfg: cfg, store: store}
}

// Run performs startup recovery, resuming the most recently active
// session if one was left in .processing/, starts the reaper, and then
// blocks until ctx is cancelled, at which point it stops any active
// session and waits for its goroutines to exit.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.store.CheckContainer(ctx); err != nil {
		return fmt.Errorf("blob store startup check: %w", err)
	}

	queue := NewQueue(m.cfg.QueueCapacity)

	recovered, stats, err := Recover(ctx, m.cfg.ProcessingRoot, m.cfg.RecoveryParallelism, queue)
	if err != nil {
		return fmt.Errorf("startup recovery: %w", err)
	}

	reaperCtx, reaperCancel := context.WithCancel(ctx)
	m.reaperCancel = reaperCancel
	reaper := NewReaper(m.cfg.Reaper)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		reaper.Start(reaperCtx)
	}()

	if stats.FilesRequeued > 0 || stats.SessionsScanned > 0 {
		logger.Info("resuming session found by startup recovery",
			"session", recovered.Name, "date", recovered.DatePrefix,
			"files_requeued", stats.FilesRequeued)
		m.mu.Lock()
		err := m.startLocked(recovered.Name, recovered.DatePrefix, queue)
		m.mu.Unlock()
		if err != nil {
			return fmt.Errorf("resume recovered session: %w", err)
		}
	}

	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()

	<-ctx.Done()

	m.mu.Lock()
	if m.workCancel != nil {
		m.workCancel()
	}
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

// StartSession implements handlers.SessionController.
func (m *Manager) StartSession(ctx context.Context, name string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.IsActive() {
		return Status{}, ErrSessionActive
	}

	sessionName, err := NewSessionName(name)
	if err != nil {
		return Status{}, err
	}
	datePrefix := time.Now().UTC().Format("20060102")

	queue := NewQueue(m.cfg.QueueCapacity)
	if err := m.startLocked(sessionName, datePrefix, queue); err != nil {
		return Status{}, err
	}
	return m.session.Status(), nil
}

// startLocked must be called with m.mu held. It creates the session's
// incoming, processing and staging directories before starting the
// watcher and worker pool, per the session lifecycle.
func (m *Manager) startLocked(name, datePrefix string, queue *Queue) error {
	incomingDir := filepath.Join(m.cfg.IncomingRoot, name)
	processingDir := filepath.Join(m.cfg.ProcessingRoot, datePrefix, name)
	stagingDir := filepath.Join(m.cfg.StagingRoot, name)
	for _, dir := range []string{incomingDir, processingDir, stagingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session directory %q: %w", dir, err)
		}
	}

	session := NewSession(name, datePrefix)

	// workCtx backs the pool and ticker; watcherCtx is a child of it so
	// a full workCancel also stops the watcher, but stopping the watcher
	// alone leaves the pool running to drain the queue.
	workCtx, workCancel := context.WithCancel(context.Background())
	watcherCtx, watcherCancel := context.WithCancel(workCtx)

	watcherCfg := m.cfg.Watcher
	watcherCfg.IncomingRoot = incomingDir
	watcher := NewWatcher(watcherCfg, queue)

	workerCfg := m.cfg.Worker
	workerCfg.ProcessingRoot = m.cfg.ProcessingRoot
	workerCfg.StagingRoot = m.cfg.StagingRoot
	pool := NewWorkerPool(workerCfg, queue, m.store, session)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		watcher.Start(watcherCtx)
	}()

	pool.Start(workCtx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		pool.Wait()
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-workCtx.Done():
				return
			case <-ticker.C:
				metrics.QueueDepth().Set(float64(queue.Depth()))
			}
		}
	}()

	m.session = session
	m.queue = queue
	m.workCancel = workCancel
	m.watcherCancel = watcherCancel
	return nil
}

// StopSession implements handlers.SessionController. It stops the
// watcher from enqueueing new work and closes the queue, but leaves the
// worker pool running so in-flight and already-queued items finish
// uploading. The session descriptor is kept (with Active cleared) so its
// final counters remain visible to Status.
func (m *Manager) StopSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.session.IsActive() {
		return ErrNoActiveSession
	}

	m.watcherCancel()
	m.queue.Close()
	m.session.MarkStopped()
	return nil
}

// Status implements handlers.SessionController.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Status()
}

// Ready implements handlers.SessionController.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}
