package tui

import (
	"github.com/vimanuelt/wayland-installation/internal/osinfo"
	"github.com/vimanuelt/wayland-installation/internal/profile"
	"github.com/vimanuelt/wayland-installation/internal/reconcile"
)

type logMsg struct {
	message string
}

type osInfoCompleteMsg struct {
	info *osinfo.OSInfo
	err  error
}

type userResolvedMsg struct {
	target profile.Target
	err    error
}

type reconcileProgressMsg struct {
	progress reconcile.ProgressMsg
}

type reconcileDoneMsg struct {
	result *reconcile.Result
	err    error
}
