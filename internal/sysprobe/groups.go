package sysprobe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
)

// GroupManager is the capability set the reconciliation core needs for
// group management. Queries tolerate absence; mutations do not create
// implicit prerequisites.
type GroupManager interface {
	GroupExists(ctx context.Context, name string) (bool, error)
	CreateGroup(ctx context.Context, name string) error
	UserInGroup(ctx context.Context, userName, group string) (bool, error)
	AddUserToGroup(ctx context.Context, userName, group string) error
}

// PwGroups manages groups through FreeBSD's pw(8).
type PwGroups struct {
	logChan chan<- string
}

func NewPwGroups(logChan chan<- string) *PwGroups {
	return &PwGroups{
		logChan: logChan,
	}
}

func (p *PwGroups) log(message string) {
	if p.logChan != nil {
		p.logChan <- message
	}
}

func (p *PwGroups) GroupExists(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, "pw", "groupshow", name)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if _, isExit := err.(*exec.ExitError); isExit {
		return false, nil
	}
	return false, errdefs.WrapCustomError(errdefs.ErrTypeGroupOperation, "failed to run pw", err)
}

func (p *PwGroups) CreateGroup(ctx context.Context, name string) error {
	p.log(fmt.Sprintf("Creating group: %s", name))

	cmd := exec.CommandContext(ctx, "pw", "groupadd", name)
	output, err := cmd.CombinedOutput()
	if err != nil {
		p.log(fmt.Sprintf("pw groupadd failed: %s", string(output)))
		return errdefs.WrapCustomError(errdefs.ErrTypeGroupOperation, fmt.Sprintf("failed to create group %s", name), err)
	}

	return nil
}

// UserInGroup checks membership via `id -Gn`, which lists every group the
// user belongs to. An unknown user yields a negative result.
func (p *PwGroups) UserInGroup(ctx context.Context, userName, group string) (bool, error) {
	cmd := exec.CommandContext(ctx, "id", "-Gn", userName)
	output, err := cmd.Output()
	if err != nil {
		if _, isExit := err.(*exec.ExitError); isExit {
			return false, nil
		}
		return false, errdefs.WrapCustomError(errdefs.ErrTypeGroupOperation, "failed to run id", err)
	}

	for _, g := range strings.Fields(string(output)) {
		if g == group {
			return true, nil
		}
	}
	return false, nil
}

func (p *PwGroups) AddUserToGroup(ctx context.Context, userName, group string) error {
	p.log(fmt.Sprintf("Adding %s to group %s", userName, group))

	cmd := exec.CommandContext(ctx, "pw", "groupmod", group, "-m", userName)
	output, err := cmd.CombinedOutput()
	if err != nil {
		p.log(fmt.Sprintf("pw groupmod failed: %s", string(output)))
		return errdefs.WrapCustomError(errdefs.ErrTypeGroupOperation, fmt.Sprintf("failed to add %s to group %s", userName, group), err)
	}

	return nil
}
