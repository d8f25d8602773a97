package blobstore

import (
	"context"
	"io"
)

// Store is the upload boundary between the worker pipeline and whatever
// object store backs it. Implementations must be idempotent: uploading
// the same blob name twice overwrites the previous content rather than
// erroring, since at-least-once delivery means a worker may retry an
// upload that already landed.
type Store interface {
	// Upload writes size bytes read from r to the blob named name,
	// overwriting any existing blob with that name.
	Upload(ctx context.Context, name string, r io.Reader, size int64) error

	// CheckContainer performs a single metadata call against the target
	// container, returning an error if it cannot be reached. Callers use
	// this at startup to abort before accepting any work.
	CheckContainer(ctx context.Context) error
}
