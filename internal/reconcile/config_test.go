package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vimanuelt/wayland-installation/internal/profile"
)

func TestNormalizeResolution(t *testing.T) {
	t.Run("supported values pass through", func(t *testing.T) {
		for _, r := range SupportedResolutions {
			got, fellBack := NormalizeResolution(r)
			assert.Equal(t, r, got)
			assert.False(t, fellBack)
		}
	})

	t.Run("invalid menu input falls back without aborting", func(t *testing.T) {
		got, fellBack := NormalizeResolution("9")
		assert.Equal(t, DefaultResolution, got)
		assert.True(t, fellBack)
	})

	t.Run("empty input falls back", func(t *testing.T) {
		got, fellBack := NormalizeResolution("")
		assert.Equal(t, DefaultResolution, got)
		assert.True(t, fellBack)
	})
}

func TestLoadOverrides(t *testing.T) {
	t.Run("missing file yields zero overrides", func(t *testing.T) {
		ov, err := LoadOverrides(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		assert.Empty(t, ov.EssentialPackages)
	})

	t.Run("file replaces package sets", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "swayinstall.toml")
		content := `essential_packages = ["sway", "seatd"]
optional_packages = ["mako"]
seat_group = "seat"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		ov, err := LoadOverrides(path)
		require.NoError(t, err)

		cfg := NewRunConfig(profile.Resolve("alice", "/home/alice", "/usr/local/bin/zsh"))
		ov.Apply(&cfg)

		assert.Equal(t, []PackageSpec{{Name: "sway"}, {Name: "seatd"}}, cfg.EssentialPackages)
		assert.Equal(t, []PackageSpec{{Name: "mako", Role: RoleOptional}}, cfg.OptionalPackages)
		assert.Equal(t, "seat", cfg.SeatGroup)
		assert.Equal(t, DefaultLockPath, cfg.LockPath, "unset override keeps default")
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("essential_packages = [unclosed"), 0o644))
		_, err := LoadOverrides(path)
		assert.Error(t, err)
	})
}

func TestNewRunConfigDefaults(t *testing.T) {
	cfg := NewRunConfig(profile.Resolve("alice", "/home/alice", "/usr/local/bin/fish"))
	assert.Equal(t, DefaultResolution, cfg.Resolution)
	assert.Equal(t, "seatd", cfg.SeatGroup)
	assert.NotEmpty(t, cfg.EssentialPackages)
	assert.Equal(t, "/home/alice/.config/sway/config", cfg.Paths.SwayConfig)
}
