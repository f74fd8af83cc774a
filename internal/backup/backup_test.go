package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".profile")
	content := []byte("export EDITOR=vi\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	mgr := NewManager(nil)
	mgr.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

	rec, err := mgr.Snapshot(path, os.Getuid(), os.Getgid())
	require.NoError(t, err)

	assert.Equal(t, path, rec.OriginalPath)
	assert.Equal(t, path+".bak.2026-03-14_09-26-53", rec.BackupPath)

	backed, err := os.ReadFile(rec.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, content, backed, "backup must preserve content byte-for-byte")
}

func TestSnapshotCreatesMissingTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".zshrc")

	mgr := NewManager(nil)
	rec, err := mgr.Snapshot(path, os.Getuid(), os.Getgid())
	require.NoError(t, err)

	// The target now exists (empty) and an empty backup was produced.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	backed, err := os.ReadFile(rec.BackupPath)
	require.NoError(t, err)
	assert.Empty(t, backed)
}

func TestRepeatedSnapshotsKeepHistory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".bash_profile")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	mgr := NewManager(nil)
	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return ts }

	first, err := mgr.Snapshot(path, os.Getuid(), os.Getgid())
	require.NoError(t, err)

	ts = ts.Add(time.Minute)
	second, err := mgr.Snapshot(path, os.Getuid(), os.Getgid())
	require.NoError(t, err)

	assert.NotEqual(t, first.BackupPath, second.BackupPath)
	assert.FileExists(t, first.BackupPath)
	assert.FileExists(t, second.BackupPath)
}
