package svcmgr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
)

const serviceTimeout = 2 * time.Minute

// Rcd drives FreeBSD's rc.d supervisor through sysrc(8) and service(8).
type Rcd struct {
	logChan chan<- string
}

func NewRcd(logChan chan<- string) *Rcd {
	return &Rcd{
		logChan: logChan,
	}
}

func (r *Rcd) log(message string) {
	if r.logChan != nil {
		r.logChan <- message
	}
}

// IsEnabledAtBoot reads <name>_enable from rc.conf. An unset knob is
// reported as disabled, not as an error.
func (r *Rcd) IsEnabledAtBoot(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sysrc", "-n", name+"_enable")
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, errdefs.WrapCustomError(errdefs.ErrTypeServiceOperation, "failed to run sysrc", err)
	}

	return strings.EqualFold(strings.TrimSpace(string(output)), "YES"), nil
}

func (r *Rcd) EnableAtBoot(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	r.log(fmt.Sprintf("Enabling service at boot: %s", name))

	cmd := exec.CommandContext(ctx, "sysrc", name+"_enable=YES")
	output, err := cmd.CombinedOutput()
	if err != nil {
		r.log(fmt.Sprintf("sysrc failed: %s", string(output)))
		return errdefs.WrapCustomError(errdefs.ErrTypeServiceOperation, fmt.Sprintf("failed to enable %s", name), err)
	}

	return nil
}

// IsRunning uses `service <name> onestatus`, which exits nonzero both
// for a stopped service and for one whose rc script is not yet
// installed. Both mean "not running" here.
func (r *Rcd) IsRunning(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "service", name, "onestatus")
	err := cmd.Run()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, errdefs.WrapCustomError(errdefs.ErrTypeServiceOperation, "failed to run service", err)
}

func (r *Rcd) Start(ctx context.Context, name string) error {
	return r.serviceAction(ctx, name, "start")
}

func (r *Rcd) Restart(ctx context.Context, name string) error {
	return r.serviceAction(ctx, name, "restart")
}

func (r *Rcd) serviceAction(ctx context.Context, name, action string) error {
	ctx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	r.log(fmt.Sprintf("service %s %s", name, action))

	cmd := exec.CommandContext(ctx, "service", name, action)
	output, err := cmd.CombinedOutput()
	if err != nil {
		r.log(fmt.Sprintf("service %s %s failed: %s", name, action, string(output)))
		return errdefs.WrapCustomError(errdefs.ErrTypeServiceOperation, fmt.Sprintf("failed to %s %s", action, name), err)
	}

	return nil
}
