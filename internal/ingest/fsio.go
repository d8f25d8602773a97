package ingest

import (
	"context"
	"os"
)

// abandonOnCancel runs fn in its own goroutine and waits for it to finish
// or for ctx to be cancelled, whichever comes first. Filesystem syscalls
// against an NFS mount can block indefinitely on a stalled server; Go
// offers no way to interrupt a blocked syscall, so a cancelled caller
// abandons the goroutine rather than waiting on it. The goroutine leaks
// until the syscall eventually returns, then exits on its own.
func abandonOnCancel(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// renameClaim performs the same-filesystem rename that atomically claims
// a file, abandoning the syscall if ctx is cancelled before it returns.
func renameClaim(ctx context.Context, oldPath, newPath string) error {
	return abandonOnCancel(ctx, func() error {
		return os.Rename(oldPath, newPath)
	})
}

// statIfExists stats path, abandoning on cancel. Returns (nil, nil) if
// the path does not exist.
func statIfExists(ctx context.Context, path string) (os.FileInfo, error) {
	var info os.FileInfo
	err := abandonOnCancel(ctx, func() error {
		var statErr error
		info, statErr = os.Stat(path)
		if os.IsNotExist(statErr) {
			return nil
		}
		return statErr
	})
	return info, err
}

// removeIfExists removes path, abandoning on cancel. Treats a
// not-exists error as success, since the caller's goal ("gone") is
// already satisfied.
func removeIfExists(ctx context.Context, path string) error {
	return abandonOnCancel(ctx, func() error {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	})
}
