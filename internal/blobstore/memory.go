package blobstore

import (
	"context"
	"io"
	"sync"
)

// MemoryStore is an in-memory Store used by unit tests that exercise the
// worker pipeline without a real or emulated blob service.
type MemoryStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	uploads int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Upload implements Store by buffering r into memory under name,
// overwriting any prior content — matching the overwrite semantics real
// backends must provide.
func (m *MemoryStore) Upload(ctx context.Context, name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = data
	m.uploads++
	return nil
}

// Get returns the content previously uploaded under name.
func (m *MemoryStore) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[name]
	return data, ok
}

// UploadCount returns the number of completed Upload calls, including
// repeated uploads of the same name.
func (m *MemoryStore) UploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

// CheckContainer always succeeds: MemoryStore has no container to miss.
func (m *MemoryStore) CheckContainer(ctx context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
