package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vimanuelt/wayland-installation/internal/profile"
)

func TestRenderEnvBlock(t *testing.T) {
	t.Run("fish syntax", func(t *testing.T) {
		block := RenderEnvBlock(profile.ShellFish)
		assert.Contains(t, block, MarkerEnvBlock)
		assert.Contains(t, block, "set -gx XDG_CURRENT_DESKTOP sway")
		assert.NotContains(t, block, "export ")
	})

	t.Run("posix syntax for bash zsh and default", func(t *testing.T) {
		for _, kind := range []profile.ShellKind{profile.ShellBash, profile.ShellZsh, profile.ShellPOSIX} {
			block := RenderEnvBlock(kind)
			assert.Contains(t, block, MarkerEnvBlock)
			assert.Contains(t, block, "export XDG_SESSION_TYPE=wayland")
			assert.NotContains(t, block, "set -gx")
		}
	})
}

func TestRenderDevdRule(t *testing.T) {
	rule := RenderDevdRule("_seatd")
	assert.Contains(t, rule, `action "chgrp _seatd /dev/$cdev && chmod g+rw /dev/$cdev";`)
	assert.False(t, strings.Contains(rule, "{{SEAT_GROUP}}"))
}

func TestSessionScriptBaseHasShebang(t *testing.T) {
	assert.True(t, strings.HasPrefix(SessionScriptBase, "#!/bin/sh\n"))
}

func TestRenderOutputStanza(t *testing.T) {
	stanza := RenderOutputStanza("2560x1440")
	assert.Contains(t, stanza, "output * resolution 2560x1440")
	assert.Contains(t, stanza, MarkerSwayOutput)
	assert.False(t, strings.Contains(stanza, "{{RESOLUTION}}"))
}
