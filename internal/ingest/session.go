package ingest

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// sessionNameRe validates user-supplied session names: letters, digits,
// underscore, dot and hyphen only.
var sessionNameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// ValidateSessionName reports whether name conforms to the session name
// grammar. An empty name is valid — the caller should generate one.
func ValidateSessionName(name string) error {
	if name == "" {
		return nil
	}
	if !sessionNameRe.MatchString(name) {
		return fmt.Errorf("session name %q contains characters outside [A-Za-z0-9_.-]", name)
	}
	return nil
}

// NewSessionName generates a session name of the form
// "00-session-<UUIDv7>" when name is empty, otherwise returns name
// unchanged after validating it.
func NewSessionName(name string) (string, error) {
	if name == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generate session id: %w", err)
		}
		return "00-session-" + id.String(), nil
	}
	if err := ValidateSessionName(name); err != nil {
		return "", err
	}
	return name, nil
}

// Session describes one active ingest run: a name, the UTC date prefix
// under which it stages and uploads files, and running counters updated
// by the worker pool.
type Session struct {
	Name       string
	DatePrefix string
	StartedAt  time.Time

	processedOK  atomic.Int64
	processedErr atomic.Int64
	active       atomic.Bool

	mu       sync.RWMutex
	lastErr  string
}

// NewSession creates a Session rooted at the given UTC date prefix. The
// session starts active; MarkStopped flips it once its watcher stops
// accepting new work.
func NewSession(name, datePrefix string) *Session {
	s := &Session{
		Name:       name,
		DatePrefix: datePrefix,
		StartedAt:  time.Now().UTC(),
	}
	s.active.Store(true)
	return s
}

// MarkStopped marks the session inactive. Counters are left untouched so
// callers can still observe the final processed totals after a stop.
func (s *Session) MarkStopped() {
	s.active.Store(false)
}

// IsActive reports whether the session is still accepting new work. A nil
// session is never active.
func (s *Session) IsActive() bool {
	if s == nil {
		return false
	}
	return s.active.Load()
}

// RecordSuccess increments the processed-ok counter.
func (s *Session) RecordSuccess() {
	s.processedOK.Add(1)
}

// RecordFailure increments the processed-error counter and records the
// failure as the session's last error.
func (s *Session) RecordFailure(err error) {
	s.processedErr.Add(1)
	if err == nil {
		return
	}
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

// LastError returns the most recently recorded failure message, or ""
// if none has occurred yet. Only the single most recent error is kept;
// this is a deliberate restraint, not an omission — a full history
// belongs in the logs and traces, not in the control-surface response.
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Status is a point-in-time snapshot of a Session suitable for the
// control surface's status endpoint.
type Status struct {
	Active       bool
	Name         string
	DatePrefix   string
	ProcessedOK  int64
	ProcessedErr int64
	LastError    string
}

// Status returns a snapshot of the session's current counters.
func (s *Session) Status() Status {
	if s == nil {
		return Status{Active: false}
	}
	return Status{
		Active:       s.IsActive(),
		Name:         s.Name,
		DatePrefix:   s.DatePrefix,
		ProcessedOK:  s.processedOK.Load(),
		ProcessedErr: s.processedErr.Load(),
		LastError:    s.LastError(),
	}
}
