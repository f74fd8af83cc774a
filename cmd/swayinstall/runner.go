package main

import (
	"context"

	"github.com/vimanuelt/wayland-installation/internal/backup"
	"github.com/vimanuelt/wayland-installation/internal/osinfo"
	"github.com/vimanuelt/wayland-installation/internal/pkgmgr"
	"github.com/vimanuelt/wayland-installation/internal/reconcile"
	"github.com/vimanuelt/wayland-installation/internal/svcmgr"
	"github.com/vimanuelt/wayland-installation/internal/sysprobe"
)

// orchestratorRunner wires the real package manager, service supervisor,
// and group tooling into a reconciliation run.
type orchestratorRunner struct{}

func (r *orchestratorRunner) Run(ctx context.Context, cfg reconcile.RunConfig, progressChan chan<- reconcile.ProgressMsg, logChan chan<- string) (*reconcile.Result, error) {
	info, err := osinfo.GetOSInfo()
	if err != nil {
		return nil, err
	}

	pkg, err := pkgmgr.NewPackageManager(info.System, logChan)
	if err != nil {
		return nil, err
	}
	svc, err := svcmgr.NewServiceManager(info.System, logChan)
	if err != nil {
		return nil, err
	}
	groups := sysprobe.NewPwGroups(logChan)
	backups := backup.NewManager(logChan)
	ledger := reconcile.NewLedger()

	muts := reconcile.NewMutators(pkg, svc, groups, backups, ledger, logChan)
	orch := reconcile.NewOrchestrator(cfg, muts, pkg, svc, ledger, logChan, progressChan)
	return orch.Run(ctx)
}
