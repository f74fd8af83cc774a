package backup

import (
	"fmt"
	"os"
	"time"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
)

const timestampFormat = "2006-01-02_15-04-05"

// Record describes one pre-mutation snapshot taken during a run.
type Record struct {
	OriginalPath string
	BackupPath   string
	CreatedAt    time.Time
}

// Manager snapshots user-owned text files before their first mutation in
// a run. Every mutating run produces a fresh backup; history is kept on
// purpose rather than deduplicated.
type Manager struct {
	logChan chan<- string
	now     func() time.Time
}

func NewManager(logChan chan<- string) *Manager {
	return &Manager{
		logChan: logChan,
		now:     time.Now,
	}
}

func (m *Manager) log(message string) {
	if m.logChan != nil {
		m.logChan <- message
	}
}

// Snapshot copies path to <path>.bak.<timestamp> byte-for-byte, matching
// the original file's ownership. When the target does not exist yet it is
// created empty with the given owner first, so downstream mutation always
// has a prior-state snapshot to fall back to.
func (m *Manager) Snapshot(path string, uid, gid int) (Record, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return Record{}, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to create "+path, err)
		}
		if err := os.Chown(path, uid, gid); err != nil {
			return Record{}, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to chown "+path, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to read "+path, err)
	}

	createdAt := m.now()
	backupPath := fmt.Sprintf("%s.bak.%s", path, createdAt.Format(timestampFormat))

	info, err := os.Stat(path)
	if err != nil {
		return Record{}, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to stat "+path, err)
	}

	if err := os.WriteFile(backupPath, data, info.Mode().Perm()); err != nil {
		return Record{}, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to write backup "+backupPath, err)
	}
	if err := os.Chown(backupPath, uid, gid); err != nil {
		return Record{}, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to chown backup "+backupPath, err)
	}

	m.log(fmt.Sprintf("Backed up %s to %s", path, backupPath))

	return Record{
		OriginalPath: path,
		BackupPath:   backupPath,
		CreatedAt:    createdAt,
	}, nil
}
