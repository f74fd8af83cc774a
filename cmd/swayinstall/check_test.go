package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vimanuelt/wayland-installation/internal/session"
)

func TestLaunchBlockProbedInSessionWrapper(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "sway-session")

	present, err := launchBlockPresent(script)
	require.NoError(t, err)
	assert.False(t, present, "missing wrapper must read as unprovisioned")

	// A wrapper written the way a run writes it: shebang base plus the
	// marker-guarded launch stanza.
	payload := session.SessionScriptBase + "\n" + session.SessionLaunchBlock
	require.NoError(t, os.WriteFile(script, []byte(payload), 0o755))

	present, err = launchBlockPresent(script)
	require.NoError(t, err)
	assert.True(t, present)
}

func TestStatusMark(t *testing.T) {
	assert.Equal(t, "✓", statusMark(true))
	assert.Equal(t, "✗", statusMark(false))
}
