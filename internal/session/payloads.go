package session

import (
	"strings"

	"github.com/vimanuelt/wayland-installation/internal/profile"
)

// Well-known destinations on a FreeBSD/GhostBSD host.
const (
	DesktopEntryPath  = "/usr/local/share/xsessions/sway.desktop"
	LightDMConfPath   = "/usr/local/etc/lightdm/lightdm.conf"
	SessionScriptPath = "/usr/local/bin/sway-session"
	DevdRulePath      = "/usr/local/etc/devd/swayinstall-input.conf"
	ToggleScriptPath  = "/usr/local/bin/sway-vid-toggle"
)

// Versioned markers guarding idempotent block insertion. A block is
// appended only when its marker is absent from the target file; a stale
// or hand-edited block keeps its marker and is skipped, not repaired.
const (
	MarkerEnvBlock      = "# >>> swayinstall:env v1 >>>"
	MarkerEnvBlockEnd   = "# <<< swayinstall:env v1 <<<"
	MarkerSessionLaunch = "# >>> swayinstall:session v1 >>>"
	MarkerSwayOutput    = "# >>> swayinstall:output v1 >>>"
)

// LightDM keys rewritten in place. Only these two lines are touched.
const (
	LightDMSessionWrapperField = "session-wrapper"
	LightDMUserSessionField    = "user-session"
	LightDMUserSessionValue    = "sway"
)

const DesktopEntry = `[Desktop Entry]
Name=Sway
Comment=An i3-compatible Wayland compositor
Exec=sway
Type=Application
DesktopNames=sway
`

// SessionScriptBase seeds the session wrapper when it does not exist
// yet. Without the shebang, LightDM's exec of the wrapper would hinge on
// the shell's ENOEXEC fallback.
const SessionScriptBase = `#!/bin/sh
`

// SessionLaunchBlock is appended to the session wrapper script below the
// base, marker-guarded like the other config blocks.
const SessionLaunchBlock = MarkerSessionLaunch + `
if [ -z "$XDG_RUNTIME_DIR" ]; then
	XDG_RUNTIME_DIR="/var/run/user/$(id -u)"
	export XDG_RUNTIME_DIR
fi
if [ ! -d "$XDG_RUNTIME_DIR" ]; then
	mkdir -p "$XDG_RUNTIME_DIR"
	chmod 0700 "$XDG_RUNTIME_DIR"
fi
exec dbus-run-session -- sway
`

const devdRule = `notify 100 {
	match "system" "DEVFS";
	match "subsystem" "CDEV";
	match "type" "CREATE";
	match "cdev" "input/event[0-9]+";
	action "chgrp {{SEAT_GROUP}} /dev/$cdev && chmod g+rw /dev/$cdev";
};
`

// RenderDevdRule builds the rule that chowns and opens input devices for
// the configured seat group as they attach, so hotplugged keyboards and
// mice work without a re-login.
func RenderDevdRule(seatGroup string) string {
	return strings.ReplaceAll(devdRule, "{{SEAT_GROUP}}", seatGroup)
}

// ToggleScript flips between the modesetting and scfb video drivers for
// troubleshooting. Written verbatim with the executable bit set.
const ToggleScript = `#!/bin/sh
# Toggle kms/scfb video configuration for Sway troubleshooting.
conf="/usr/local/etc/X11/xorg.conf.d/driver-kms.conf"
if [ -e "$conf" ]; then
	mv "$conf" "$conf.disabled"
	echo "kms driver disabled; reboot to apply"
else
	if [ -e "$conf.disabled" ]; then
		mv "$conf.disabled" "$conf"
		echo "kms driver enabled; reboot to apply"
	else
		echo "no kms driver configuration found" >&2
		exit 1
	fi
fi
`

// SwayConfig is the create-if-absent base compositor configuration.
// Local edits survive re-runs because an existing file is never replaced.
const SwayConfig = `# Sway configuration installed by swayinstall.
set $mod Mod4
set $term foot
set $menu wmenu-run

bindsym $mod+Return exec $term
bindsym $mod+d exec $menu
bindsym $mod+Shift+q kill
bindsym $mod+Shift+c reload
bindsym $mod+Shift+e exec swaynag -t warning -m 'Exit sway?' -B 'Yes' 'swaymsg exit'

bindsym $mod+h focus left
bindsym $mod+j focus down
bindsym $mod+k focus up
bindsym $mod+l focus right

bar {
	position top
	status_command while date +'%Y-%m-%d %H:%M'; do sleep 30; done
}

include /usr/local/etc/sway/config.d/*
`

const swayOutputStanza = MarkerSwayOutput + `
output * resolution {{RESOLUTION}}
input type:keyboard {
	xkb_layout us
}
`

// RenderOutputStanza fills the output/keyboard stanza appended to the
// Sway configuration with the chosen resolution.
func RenderOutputStanza(resolution string) string {
	return strings.ReplaceAll(swayOutputStanza, "{{RESOLUTION}}", resolution)
}

const envBlockPOSIX = MarkerEnvBlock + `
XDG_RUNTIME_DIR="/var/run/user/$(id -u)"
export XDG_RUNTIME_DIR
export XDG_CURRENT_DESKTOP=sway
export XDG_SESSION_TYPE=wayland
export MOZ_ENABLE_WAYLAND=1
export QT_QPA_PLATFORM=wayland
` + MarkerEnvBlockEnd + "\n"

const envBlockFish = MarkerEnvBlock + `
set -gx XDG_RUNTIME_DIR "/var/run/user/"(id -u)
set -gx XDG_CURRENT_DESKTOP sway
set -gx XDG_SESSION_TYPE wayland
set -gx MOZ_ENABLE_WAYLAND 1
set -gx QT_QPA_PLATFORM wayland
` + MarkerEnvBlockEnd + "\n"

// RenderEnvBlock returns the environment export block in the syntax of
// the user's login shell. bash and zsh read POSIX-style exports.
func RenderEnvBlock(kind profile.ShellKind) string {
	if kind == profile.ShellFish {
		return envBlockFish
	}
	return envBlockPOSIX
}
