package pkgmgr

import (
	"context"
	"fmt"
)

// PackageManager is the capability set the reconciliation core needs from
// the host's package tool. Every call is synchronous; network-bound
// operations carry their own bounded timeout.
type PackageManager interface {
	IsInstalled(ctx context.Context, name string) (bool, error)
	Install(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	UpdateRepo(ctx context.Context) error
}

func NewPackageManager(system string, logChan chan<- string) (PackageManager, error) {
	switch system {
	case "freebsd", "ghostbsd":
		return NewPkgNG(logChan), nil
	default:
		return nil, fmt.Errorf("unsupported system: %s", system)
	}
}
