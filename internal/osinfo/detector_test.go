package osinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOSRelease(t *testing.T) {
	dir := t.TempDir()
	release := filepath.Join(dir, "os-release")
	content := `NAME=GhostBSD
VERSION="25.01"
VERSION_ID="25.01"
ID=ghostbsd
PRETTY_NAME="GhostBSD 25.01"
`
	require.NoError(t, os.WriteFile(release, []byte(content), 0o644))

	origOpen := osOpen
	osOpen = func(string) (*os.File, error) { return os.Open(release) }
	defer func() { osOpen = origOpen }()

	info := &OSInfo{}
	require.NoError(t, readOSRelease(info))

	assert.Equal(t, "ghostbsd", info.System)
	assert.Equal(t, "25.01", info.VersionID)
	assert.Equal(t, "GhostBSD 25.01", info.PrettyName)
}

func TestGetOSInfoRejectsForeignOS(t *testing.T) {
	origOs := getOsFunc
	getOsFunc = func() string { return "linux" }
	defer func() { getOsFunc = origOs }()

	_, err := GetOSInfo()
	assert.Error(t, err)
}
