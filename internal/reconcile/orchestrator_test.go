package reconcile

import (
	"context"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vimanuelt/wayland-installation/internal/backup"
	"github.com/vimanuelt/wayland-installation/internal/errdefs"
	"github.com/vimanuelt/wayland-installation/internal/profile"
)

type orchestratorFixture struct {
	cfg    RunConfig
	pkg    *fakePackageManager
	svc    *fakeServiceManager
	groups *fakeGroupManager
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	current, err := user.Current()
	require.NoError(t, err)

	dir := t.TempDir()
	target := profile.Resolve(current.Username, dir, "/bin/sh")

	cfg := NewRunConfig(target)
	cfg.LockPath = filepath.Join(dir, "run.lock")
	cfg.Paths = Paths{
		DesktopEntry:  filepath.Join(dir, "xsessions", "sway.desktop"),
		LightDMConf:   filepath.Join(dir, "lightdm.conf"),
		SessionScript: filepath.Join(dir, "sway-session"),
		DevdRule:      filepath.Join(dir, "devd-input.conf"),
		ToggleScript:  filepath.Join(dir, "sway-vid-toggle"),
		SwayConfig:    filepath.Join(dir, "sway-config"),
		SeatdSocket:   filepath.Join(dir, "seatd.sock"),
	}
	require.NoError(t, os.WriteFile(cfg.Paths.LightDMConf, []byte("[Seat:*]\n#user-session=mate\n"), 0o644))

	return &orchestratorFixture{
		cfg:    cfg,
		pkg:    newFakePackageManager(),
		svc:    newFakeServiceManager(),
		groups: newFakeGroupManager("video"),
	}
}

func (f *orchestratorFixture) newRun() *Orchestrator {
	ledger := NewLedger()
	muts := NewMutators(f.pkg, f.svc, f.groups, backup.NewManager(nil), ledger, nil)
	o := NewOrchestrator(f.cfg, muts, f.pkg, f.svc, ledger, nil, nil)
	o.geteuid = func() int { return 0 }
	o.commandExists = func(string) bool { return true }
	o.systemUID = os.Getuid()
	o.systemGID = os.Getgid()
	return o
}

func TestOrchestratorFullRunConverges(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	result, err := f.newRun().Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.True(t, result.NeedsRelogin)

	// Everything landed.
	assert.True(t, f.pkg.installed["sway"])
	assert.True(t, f.svc.enabled["seatd"])
	assert.True(t, f.svc.running["seatd"])
	member, _ := f.groups.UserInGroup(ctx, f.cfg.Target.UserName, f.cfg.SeatGroup)
	assert.True(t, member)
	assert.FileExists(t, f.cfg.Paths.DesktopEntry)
	assert.FileExists(t, f.cfg.Paths.ToggleScript)

	conf, readErr := os.ReadFile(f.cfg.Paths.LightDMConf)
	require.NoError(t, readErr)
	assert.Contains(t, string(conf), "user-session=sway")
}

func TestOrchestratorSecondRunIsIdempotent(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	_, err := f.newRun().Run(ctx)
	require.NoError(t, err)

	profileAfterFirst, err := os.ReadFile(f.cfg.Target.ProfilePath)
	require.NoError(t, err)
	swayAfterFirst, err := os.ReadFile(f.cfg.Paths.SwayConfig)
	require.NoError(t, err)

	result, err := f.newRun().Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.Empty(t, result.Changed, "second run must find everything satisfied")
	assert.Empty(t, f.pkg.removeCalls)

	profileAfterSecond, err := os.ReadFile(f.cfg.Target.ProfilePath)
	require.NoError(t, err)
	assert.Equal(t, profileAfterFirst, profileAfterSecond, "no duplicate config blocks")

	swayAfterSecond, err := os.ReadFile(f.cfg.Paths.SwayConfig)
	require.NoError(t, err)
	assert.Equal(t, swayAfterFirst, swayAfterSecond)
}

func TestOrchestratorRollsBackFreshInstallsOnly(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.cfg.EssentialPackages = []PackageSpec{
		{Name: "dbus"},
		{Name: "sway"},
		{Name: "seatd"},
		{Name: "foot"},
	}
	f.cfg.IncludeOptional = false
	f.pkg.installed["dbus"] = true
	f.pkg.failInstall["foot"] = errors.New("checksum mismatch")

	result, err := f.newRun().Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateRolledBack, result.State)

	// Exactly the two fresh installs were removed, in reverse order.
	assert.Equal(t, []string{"seatd", "sway"}, f.pkg.removeCalls)
	assert.Equal(t, []string{"seatd", "sway"}, result.RolledBack)
	assert.True(t, f.pkg.installed["dbus"], "pre-existing packages stay untouched")
	assert.False(t, f.pkg.installed["sway"])
	assert.False(t, f.pkg.installed["seatd"])
}

func TestOrchestratorOptionalFailureContinues(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.pkg.failInstall["mako"] = errors.New("no such package")

	result, err := f.newRun().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.Contains(t, result.Skipped, "package mako")
	assert.Empty(t, f.pkg.removeCalls, "optional failure must not trigger rollback")
}

func TestOrchestratorRefusesWithoutRoot(t *testing.T) {
	f := newOrchestratorFixture(t)
	o := f.newRun()
	o.geteuid = func() int { return 1001 }

	result, err := o.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypePermissionDenied))
	assert.Equal(t, StateValidating, result.State)
}

func TestOrchestratorRefusesWithoutRequiredTools(t *testing.T) {
	f := newOrchestratorFixture(t)
	o := f.newRun()
	o.commandExists = func(tool string) bool { return tool != "pkg" }

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypePrerequisiteMissing))
}

func TestOrchestratorDetectsConcurrentRun(t *testing.T) {
	f := newOrchestratorFixture(t)

	lock, err := AcquireRunLock(f.cfg.LockPath)
	require.NoError(t, err)
	defer lock.Release()

	_, err = f.newRun().Run(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeConcurrentRun))
}

func TestOrchestratorDeferredActivation(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.cfg.StartServices = false

	result, err := f.newRun().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.True(t, f.svc.enabled["seatd"])
	assert.Empty(t, f.svc.startCalls, "deferred activation must not hot-start services")
}

func TestOrchestratorFinalizeRestartsDisplayManager(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.cfg.Finalize = FinalizeRestartDM

	result, err := f.newRun().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, []string{"lightdm"}, f.svc.restarted)
}

func TestOrchestratorFinalizeFailureKeepsConvergedState(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.cfg.EssentialPackages = []PackageSpec{{Name: "sway"}, {Name: "seatd"}}
	f.cfg.IncludeOptional = false
	f.cfg.Finalize = FinalizeRestartDM
	f.svc.restartErr["lightdm"] = errors.New("lightdm restart failed")

	result, err := f.newRun().Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateFinalizing, result.State, "a finalize failure must not reach the rollback state")
	assert.Empty(t, result.RolledBack)
	assert.Empty(t, f.pkg.removeCalls, "converged packages must survive a failed display manager restart")
	assert.True(t, f.pkg.installed["sway"])
	assert.True(t, f.pkg.installed["seatd"])
}

func TestOrchestratorLockPrecedesValidation(t *testing.T) {
	f := newOrchestratorFixture(t)

	lock, err := AcquireRunLock(f.cfg.LockPath)
	require.NoError(t, err)
	defer lock.Release()

	o := f.newRun()
	o.pkg = nil // repo update must not be reachable while the lock is held

	_, err = o.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeConcurrentRun))
}

func TestOrchestratorSessionScriptStartsWithShebang(t *testing.T) {
	f := newOrchestratorFixture(t)

	_, err := f.newRun().Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(f.cfg.Paths.SessionScript)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#!/bin/sh\n"))
	assert.Contains(t, string(data), "exec dbus-run-session -- sway")
}

func TestOrchestratorDevdRuleUsesConfiguredSeatGroup(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.cfg.SeatGroup = "_seatd"

	_, err := f.newRun().Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(f.cfg.Paths.DevdRule)
	require.NoError(t, err)
	assert.Contains(t, string(data), "chgrp _seatd ")
	assert.NotContains(t, string(data), "{{SEAT_GROUP}}")
}

func TestOrchestratorCancelledRunRollsBack(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.cfg.EssentialPackages = []PackageSpec{{Name: "sway"}, {Name: "seatd"}}
	f.cfg.IncludeOptional = false

	ctx, cancel := context.WithCancel(context.Background())

	// A termination signal lands mid-install: the second package goes in,
	// then the next phase boundary observes the cancelled context.
	f.pkg.installHook = func(name string) {
		if name == "seatd" {
			cancel()
		}
	}

	result, err := f.newRun().Run(ctx)
	require.Error(t, err)
	assert.Equal(t, StateRolledBack, result.State, "cancellation after installs takes the rollback path")
	assert.ElementsMatch(t, []string{"sway", "seatd"}, f.pkg.removeCalls)
}
