package reconcile

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
)

// RunLock is a process-wide advisory lock preventing two provisioning
// runs from mutating the same host at once. The lock file persists; only
// the flock on it matters.
type RunLock struct {
	path string
	file *os.File
}

// AcquireRunLock takes an exclusive non-blocking flock on path. A held
// lock fails fast with ErrTypeConcurrentRun instead of queueing behind
// the other run.
func AcquireRunLock(path string) (*RunLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to open lock file "+path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, errdefs.ErrConcurrentRun
		}
		return nil, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to lock "+path, err)
	}

	return &RunLock{path: path, file: f}, nil
}

// Release drops the lock. Safe to call once at process exit.
func (l *RunLock) Release() error {
	if l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return err
	}
	return closeErr
}
