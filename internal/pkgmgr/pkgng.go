package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
)

const (
	installTimeout = 10 * time.Minute
	updateTimeout  = 3 * time.Minute
	queryTimeout   = 30 * time.Second
)

// PkgNG drives FreeBSD's pkg(8).
type PkgNG struct {
	logChan chan<- string
}

func NewPkgNG(logChan chan<- string) *PkgNG {
	return &PkgNG{
		logChan: logChan,
	}
}

func (p *PkgNG) log(message string) {
	if p.logChan != nil {
		p.logChan <- message
	}
}

// IsInstalled asks pkg whether the named package is present. A nonzero
// exit from `pkg info -e` means "not installed", never an error.
func (p *PkgNG) IsInstalled(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pkg", "info", "-e", name)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeTimedOut, fmt.Sprintf("pkg info -e %s timed out", name), err)
	}
	return false, errdefs.WrapCustomError(errdefs.ErrTypePrerequisiteMissing, "failed to run pkg", err)
}

func (p *PkgNG) Install(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	p.log(fmt.Sprintf("Installing package: %s", name))

	cmd := exec.CommandContext(ctx, "pkg", "install", "-y", name)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errdefs.WrapCustomError(errdefs.ErrTypeTimedOut, fmt.Sprintf("pkg install %s timed out", name), err)
		}
		p.log(fmt.Sprintf("Package installation failed: %s", string(output)))
		return errdefs.WrapCustomError(errdefs.ErrTypePackageInstall, fmt.Sprintf("failed to install %s", name), err)
	}

	p.log(fmt.Sprintf("Installed %s", name))
	return nil
}

func (p *PkgNG) Remove(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	p.log(fmt.Sprintf("Removing package: %s", name))

	cmd := exec.CommandContext(ctx, "pkg", "delete", "-y", name)
	output, err := cmd.CombinedOutput()
	if err != nil {
		p.log(fmt.Sprintf("Package removal failed: %s", string(output)))
		return errdefs.WrapCustomError(errdefs.ErrTypePackageInstall, fmt.Sprintf("failed to remove %s", name), err)
	}

	p.log(fmt.Sprintf("Removed %s", name))
	return nil
}

// UpdateRepo refreshes the package catalogue. It doubles as the network
// reachability check during validation: an unreachable repository fails
// here rather than midway through installation.
func (p *PkgNG) UpdateRepo(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	p.log("Updating package repository catalogue")

	cmd := exec.CommandContext(ctx, "pkg", "update")
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errdefs.WrapCustomError(errdefs.ErrTypeTimedOut, "pkg update timed out", err)
		}
		p.log(fmt.Sprintf("Repository update failed: %s", string(output)))
		return errdefs.WrapCustomError(errdefs.ErrTypeNetworkUnavailable, "package repository unreachable", err)
	}

	return nil
}
