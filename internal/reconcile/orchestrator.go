package reconcile

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
	"github.com/vimanuelt/wayland-installation/internal/pkgmgr"
	"github.com/vimanuelt/wayland-installation/internal/session"
	"github.com/vimanuelt/wayland-installation/internal/svcmgr"
	"github.com/vimanuelt/wayland-installation/internal/sysprobe"
)

// RunState tracks the orchestrator's position in its state machine.
type RunState int

const (
	StateStart RunState = iota
	StateValidating
	StateReconciling
	StateFinalizing
	StateDone
	StateRolledBack
)

// Phase identifies the fixed, topologically ordered reconciliation steps.
type Phase int

const (
	PhaseValidate Phase = iota
	PhaseGroups
	PhasePackages
	PhaseServices
	PhaseMembership
	PhaseConfigFiles
	PhasePermissions
	PhaseFinalize
	PhaseComplete
)

// ProgressMsg reports orchestration progress to the TUI or log sink.
type ProgressMsg struct {
	Phase      Phase
	Progress   float64
	Step       string
	IsComplete bool
	LogOutput  string
	Error      error
}

// Result summarizes a finished run.
type Result struct {
	State        RunState
	Changed      []string
	Satisfied    []string
	Skipped      []string
	RolledBack   []string
	NeedsRelogin bool
}

// Orchestrator sequences probes and mutators in dependency order: groups
// before membership, packages before service enablement, backups before
// file mutation. It is strictly sequential; each mutator completes before
// the next begins.
type Orchestrator struct {
	cfg    RunConfig
	muts   *Mutators
	pkg    pkgmgr.PackageManager
	svc    svcmgr.ServiceManager
	ledger *Ledger

	logChan      chan<- string
	progressChan chan<- ProgressMsg

	// Test seams.
	geteuid       func() int
	commandExists func(string) bool
	rebootFunc    func(ctx context.Context) error
	requiredTools []string
	systemUID     int
	systemGID     int
}

func NewOrchestrator(cfg RunConfig, muts *Mutators, pkg pkgmgr.PackageManager, svc svcmgr.ServiceManager, ledger *Ledger, logChan chan<- string, progressChan chan<- ProgressMsg) *Orchestrator {
	return &Orchestrator{
		cfg:           cfg,
		muts:          muts,
		pkg:           pkg,
		svc:           svc,
		ledger:        ledger,
		logChan:       logChan,
		progressChan:  progressChan,
		geteuid:       os.Geteuid,
		commandExists: sysprobe.CommandExists,
		rebootFunc:    systemReboot,
		requiredTools: []string{"pkg", "sysrc", "service", "pw"},
		systemUID:     0,
		systemGID:     0,
	}
}

func systemReboot(ctx context.Context) error {
	return exec.CommandContext(ctx, "shutdown", "-r", "now").Run()
}

func (o *Orchestrator) log(message string) {
	if o.logChan != nil {
		o.logChan <- message
	}
}

func (o *Orchestrator) progress(phase Phase, progress float64, step string) {
	if o.progressChan != nil {
		o.progressChan <- ProgressMsg{Phase: phase, Progress: progress, Step: step}
	}
}

func (o *Orchestrator) note(result *Result, changed bool, what string) {
	if changed {
		result.Changed = append(result.Changed, what)
	} else {
		result.Satisfied = append(result.Satisfied, what)
	}
}

// Run drives the full reconciliation. On a fatal failure during the
// reconciling phase after at least one fresh package install it rolls
// those installs back and returns the original error with State set to
// StateRolledBack. Rollback never touches file, group, or service
// changes, and never runs once finalizing has begun.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	result := &Result{State: StateStart}

	lock, err := AcquireRunLock(o.cfg.LockPath)
	if err != nil {
		return result, err
	}
	defer lock.Release()

	result.State = StateValidating
	if err := o.validate(ctx); err != nil {
		return result, err
	}

	result.State = StateReconciling
	if err := o.reconcile(ctx, result); err != nil {
		return o.fail(ctx, result, err)
	}

	// By this point the system is converged; a failed restart or reboot
	// must not unwind it. The error surfaces without touching the ledger.
	result.State = StateFinalizing
	if err := o.finalize(ctx, result); err != nil {
		o.log(fmt.Sprintf("Finalize failed, converged state kept: %v", err))
		return result, err
	}

	result.State = StateDone
	result.NeedsRelogin = true
	o.progress(PhaseComplete, 1.0, "Reconciliation complete")
	return result, nil
}

func (o *Orchestrator) validate(ctx context.Context) error {
	o.progress(PhaseValidate, 0.0, "Validating prerequisites")

	if o.geteuid() != 0 {
		return errdefs.NewCustomError(errdefs.ErrTypePermissionDenied, "this tool must run with root privileges")
	}

	for _, tool := range o.requiredTools {
		if !o.commandExists(tool) {
			return errdefs.NewCustomError(errdefs.ErrTypePrerequisiteMissing, fmt.Sprintf("required tool %s not found", tool))
		}
	}

	o.progress(PhaseValidate, 0.5, "Checking package repository")
	if err := o.pkg.UpdateRepo(ctx); err != nil {
		return err
	}

	return nil
}

func (o *Orchestrator) reconcile(ctx context.Context, result *Result) error {
	type step struct {
		phase Phase
		name  string
		run   func(context.Context, *Result) error
	}

	steps := []step{
		{PhaseGroups, "Creating groups", o.reconcileGroups},
		{PhasePackages, "Installing packages", o.reconcilePackages},
		{PhaseServices, "Enabling services", o.reconcileServices},
		{PhaseMembership, "Asserting group membership", o.reconcileMembership},
		{PhaseConfigFiles, "Writing configuration files", o.reconcileConfigFiles},
		{PhasePermissions, "Converging device permissions", o.reconcilePermissions},
	}

	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return errdefs.WrapCustomError(errdefs.ErrTypeGeneric, "run cancelled", err)
		}
		o.progress(s.phase, float64(i)/float64(len(steps)), s.name)
		if err := s.run(ctx, result); err != nil {
			return err
		}
	}

	return nil
}

func (o *Orchestrator) reconcileGroups(ctx context.Context, result *Result) error {
	changed, err := o.muts.EnsureGroup(ctx, o.cfg.SeatGroup)
	if err != nil {
		return err
	}
	o.note(result, changed, "group "+o.cfg.SeatGroup)
	return nil
}

func (o *Orchestrator) reconcilePackages(ctx context.Context, result *Result) error {
	for _, spec := range o.cfg.EssentialPackages {
		changed, err := o.muts.EnsurePackage(ctx, spec)
		if err != nil {
			return err
		}
		o.note(result, changed, "package "+spec.Name)
	}

	if !o.cfg.IncludeOptional {
		return nil
	}

	for _, spec := range o.cfg.OptionalPackages {
		changed, err := o.muts.EnsurePackage(ctx, spec)
		if err != nil {
			o.log(fmt.Sprintf("Optional package %s failed, continuing: %v", spec.Name, err))
			result.Skipped = append(result.Skipped, "package "+spec.Name)
			continue
		}
		o.note(result, changed, "package "+spec.Name)
	}

	return nil
}

func (o *Orchestrator) reconcileServices(ctx context.Context, result *Result) error {
	for _, name := range []string{"seatd", "dbus"} {
		changed, err := o.muts.EnsureServiceEnabled(ctx, name)
		if err != nil {
			return err
		}
		o.note(result, changed, "service "+name+" enabled")
	}

	if !o.cfg.StartServices {
		o.log("Deferred service activation: changes take effect after reboot")
		return nil
	}

	// Starting now is best-effort: a service that only comes up cleanly
	// after reboot must not abort an otherwise converged run.
	for _, name := range []string{"seatd", "dbus"} {
		changed, err := o.muts.EnsureServiceRunning(ctx, name)
		if err != nil {
			o.log(fmt.Sprintf("Could not start %s now, continuing: %v", name, err))
			result.Skipped = append(result.Skipped, "service "+name+" running")
			continue
		}
		o.note(result, changed, "service "+name+" running")
	}

	return nil
}

func (o *Orchestrator) reconcileMembership(ctx context.Context, result *Result) error {
	user := o.cfg.Target.UserName
	for _, group := range []string{o.cfg.SeatGroup, "video"} {
		changed, err := o.muts.EnsureGroupMembership(ctx, user, group)
		if err != nil {
			return err
		}
		o.note(result, changed, fmt.Sprintf("%s in group %s", user, group))
	}
	return nil
}

func (o *Orchestrator) reconcileConfigFiles(ctx context.Context, result *Result) error {
	uid, gid, err := sysprobe.LookupUserIDs(o.cfg.Target.UserName)
	if err != nil {
		return err
	}

	changed, err := o.muts.EnsureDesktopEntryFile(o.cfg.Paths.DesktopEntry, session.DesktopEntry)
	if err != nil {
		return err
	}
	o.note(result, changed, "desktop entry")

	// The display manager is optional; a host without LightDM still gets
	// a working `sway` login from the console.
	for _, rewrite := range []struct{ field, value string }{
		{session.LightDMSessionWrapperField, o.cfg.Paths.SessionScript},
		{session.LightDMUserSessionField, session.LightDMUserSessionValue},
	} {
		changed, err := o.muts.RewriteConfigField(o.cfg.Paths.LightDMConf, rewrite.field, rewrite.value)
		if err != nil {
			o.log(fmt.Sprintf("Skipping LightDM key %s: %v", rewrite.field, err))
			result.Skipped = append(result.Skipped, "lightdm "+rewrite.field)
			continue
		}
		o.note(result, changed, "lightdm "+rewrite.field)
	}

	if _, err := o.muts.EnsureDesktopEntryFile(o.cfg.Paths.SessionScript, session.SessionScriptBase); err != nil {
		return err
	}
	changed, err = o.muts.EnsureConfigBlock(o.cfg.Paths.SessionScript, session.MarkerSessionLaunch, session.SessionLaunchBlock, o.systemUID, o.systemGID)
	if err != nil {
		return err
	}
	o.note(result, changed, "session launch script")
	if _, err := o.muts.EnsureFileOwnerPermissions(o.cfg.Paths.SessionScript, o.systemUID, o.systemGID, 0o755); err != nil {
		return err
	}

	changed, err = o.muts.EnsureConfigBlock(o.cfg.Target.ProfilePath, session.MarkerEnvBlock, session.RenderEnvBlock(o.cfg.Target.Shell), uid, gid)
	if err != nil {
		return err
	}
	o.note(result, changed, "profile environment block")

	changed, err = o.muts.EnsureDesktopEntryFile(o.cfg.Paths.SwayConfig, session.SwayConfig)
	if err != nil {
		return err
	}
	o.note(result, changed, "sway config")

	changed, err = o.muts.EnsureConfigBlock(o.cfg.Paths.SwayConfig, session.MarkerSwayOutput, session.RenderOutputStanza(o.cfg.Resolution), uid, gid)
	if err != nil {
		return err
	}
	o.note(result, changed, "sway output stanza")

	if _, err := o.muts.EnsureFileOwnerPermissions(o.cfg.Paths.SwayConfig, uid, gid, 0o644); err != nil {
		return err
	}

	changed, err = o.muts.EnsureFileContent(o.cfg.Paths.DevdRule, session.RenderDevdRule(o.cfg.SeatGroup), 0o644)
	if err != nil {
		return err
	}
	o.note(result, changed, "devd input rule")

	changed, err = o.muts.EnsureExecutableFile(o.cfg.Paths.ToggleScript, session.ToggleScript)
	if err != nil {
		return err
	}
	o.note(result, changed, "video toggle script")

	return nil
}

func (o *Orchestrator) reconcilePermissions(ctx context.Context, result *Result) error {
	if !sysprobe.FileExists(o.cfg.Paths.SeatdSocket) {
		o.log("seatd socket not present yet; permissions apply once the daemon runs")
		result.Skipped = append(result.Skipped, "seatd socket permissions")
		return nil
	}

	gid, err := sysprobe.LookupGroupID(o.cfg.SeatGroup)
	if err != nil {
		o.log(fmt.Sprintf("Skipping socket permissions: %v", err))
		result.Skipped = append(result.Skipped, "seatd socket permissions")
		return nil
	}

	changed, err := o.muts.EnsureFileOwnerPermissions(o.cfg.Paths.SeatdSocket, 0, gid, 0o660)
	if err != nil {
		o.log(fmt.Sprintf("Socket permission convergence failed, continuing: %v", err))
		result.Skipped = append(result.Skipped, "seatd socket permissions")
		return nil
	}
	o.note(result, changed, "seatd socket permissions")
	return nil
}

func (o *Orchestrator) finalize(ctx context.Context, result *Result) error {
	switch o.cfg.Finalize {
	case FinalizeRestartDM:
		o.progress(PhaseFinalize, 0.9, "Restarting display manager")
		if err := o.svc.Restart(ctx, "lightdm"); err != nil {
			return err
		}
		result.Changed = append(result.Changed, "display manager restarted")
	case FinalizeReboot:
		o.progress(PhaseFinalize, 0.9, "Rebooting")
		if err := o.rebootFunc(ctx); err != nil {
			return errdefs.WrapCustomError(errdefs.ErrTypeGeneric, "reboot failed", err)
		}
	case FinalizeNone:
		o.log("No finalize action requested; membership and permission changes need a re-login")
	}
	return nil
}

// fail handles a fatal error inside reconciliation: roll back every
// package this run freshly installed, leave everything else untouched,
// and surface the original error.
func (o *Orchestrator) fail(ctx context.Context, result *Result, cause error) (*Result, error) {
	fresh := o.ledger.FreshInstalls()
	if len(fresh) == 0 {
		return result, cause
	}

	o.log(fmt.Sprintf("Fatal error, rolling back %d freshly installed package(s)", len(fresh)))

	// The run context may already be cancelled (signal path); rollback
	// proceeds on a detached context, best-effort.
	rbCtx := context.WithoutCancel(ctx)
	for i := len(fresh) - 1; i >= 0; i-- {
		name := fresh[i]
		if err := o.pkg.Remove(rbCtx, name); err != nil {
			o.log(fmt.Sprintf("Rollback of %s failed: %v", name, err))
			continue
		}
		result.RolledBack = append(result.RolledBack, name)
	}

	result.State = StateRolledBack
	return result, cause
}
