package svcmgr

import (
	"context"
	"fmt"
)

// ServiceManager is the capability set the reconciliation core needs from
// the host's service supervisor. Boot enablement and running-now are
// independent axes; asserting one never implies the other.
type ServiceManager interface {
	IsEnabledAtBoot(ctx context.Context, name string) (bool, error)
	EnableAtBoot(ctx context.Context, name string) error
	IsRunning(ctx context.Context, name string) (bool, error)
	Start(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
}

func NewServiceManager(system string, logChan chan<- string) (ServiceManager, error) {
	switch system {
	case "freebsd", "ghostbsd":
		return NewRcd(logChan), nil
	default:
		return nil, fmt.Errorf("unsupported system: %s", system)
	}
}
