package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vimanuelt/wayland-installation/internal/backup"
	"github.com/vimanuelt/wayland-installation/internal/errdefs"
	"github.com/vimanuelt/wayland-installation/internal/pkgmgr"
	"github.com/vimanuelt/wayland-installation/internal/svcmgr"
	"github.com/vimanuelt/wayland-installation/internal/sysprobe"
)

// Mutators converge individual desired-state facts. Every mutator probes
// first and only mutates on divergence; "already satisfied" is a no-op,
// never an error. A mutator never claims success on a failed underlying
// call.
type Mutators struct {
	pkg     pkgmgr.PackageManager
	svc     svcmgr.ServiceManager
	groups  sysprobe.GroupManager
	backups *backup.Manager
	ledger  *Ledger
	logChan chan<- string
}

func NewMutators(pkg pkgmgr.PackageManager, svc svcmgr.ServiceManager, groups sysprobe.GroupManager, backups *backup.Manager, ledger *Ledger, logChan chan<- string) *Mutators {
	return &Mutators{
		pkg:     pkg,
		svc:     svc,
		groups:  groups,
		backups: backups,
		ledger:  ledger,
		logChan: logChan,
	}
}

func (m *Mutators) log(message string) {
	if m.logChan != nil {
		m.logChan <- message
	}
}

// EnsurePackage installs spec.Name if absent, recording fresh installs in
// the ledger. Failure policy (essential aborts, optional continues) is
// carried by spec.Role and applied by the orchestrator.
func (m *Mutators) EnsurePackage(ctx context.Context, spec PackageSpec) (bool, error) {
	installed, err := m.pkg.IsInstalled(ctx, spec.Name)
	if err != nil {
		return false, err
	}
	if installed {
		m.log(fmt.Sprintf("Package %s already installed", spec.Name))
		return false, nil
	}

	if err := m.pkg.Install(ctx, spec.Name); err != nil {
		return false, err
	}

	m.ledger.RecordInstall(spec.Name)
	return true, nil
}

// EnsureGroup creates the group if absent. Failure is fatal to the run;
// nothing downstream can proceed without it.
func (m *Mutators) EnsureGroup(ctx context.Context, name string) (bool, error) {
	exists, err := m.groups.GroupExists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		m.log(fmt.Sprintf("Group %s already exists", name))
		return false, nil
	}

	if err := m.groups.CreateGroup(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureGroupMembership adds userName to group. The group must already
// exist; a missing group is a hard GroupOperationFailed, never an
// implicit creation.
func (m *Mutators) EnsureGroupMembership(ctx context.Context, userName, group string) (bool, error) {
	exists, err := m.groups.GroupExists(ctx, group)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, errdefs.NewCustomError(errdefs.ErrTypeGroupOperation, fmt.Sprintf("group %s does not exist", group))
	}

	member, err := m.groups.UserInGroup(ctx, userName, group)
	if err != nil {
		return false, err
	}
	if member {
		m.log(fmt.Sprintf("User %s already in group %s", userName, group))
		return false, nil
	}

	if err := m.groups.AddUserToGroup(ctx, userName, group); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Mutators) EnsureServiceEnabled(ctx context.Context, name string) (bool, error) {
	enabled, err := m.svc.IsEnabledAtBoot(ctx, name)
	if err != nil {
		return false, err
	}
	if enabled {
		m.log(fmt.Sprintf("Service %s already enabled at boot", name))
		return false, nil
	}

	if err := m.svc.EnableAtBoot(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Mutators) EnsureServiceRunning(ctx context.Context, name string) (bool, error) {
	running, err := m.svc.IsRunning(ctx, name)
	if err != nil {
		return false, err
	}
	if running {
		m.log(fmt.Sprintf("Service %s already running", name))
		return false, nil
	}

	if err := m.svc.Start(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureConfigBlock appends payload to path when marker is absent, taking
// a backup first. Strictly append-if-absent: a file carrying a stale or
// partially edited block keeps its marker and is skipped.
func (m *Mutators) EnsureConfigBlock(path, marker, payload string, uid, gid int) (bool, error) {
	present, err := sysprobe.FileContains(path, marker)
	if err != nil {
		return false, err
	}
	if present {
		m.log(fmt.Sprintf("Config block %q already present in %s", marker, path))
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to create parent of "+path, err)
	}

	if _, err := m.backups.Snapshot(path, uid, gid); err != nil {
		return false, err
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to read "+path, err)
	}

	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		b.WriteString("\n")
	}
	b.WriteString(payload)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to write "+path, err)
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to chown "+path, err)
	}

	m.log(fmt.Sprintf("Appended config block %q to %s", marker, path))
	return true, nil
}

// EnsureFileOwnerPermissions converges owner, group, and mode bits,
// issuing a change call only for the attributes that differ.
func (m *Mutators) EnsureFileOwnerPermissions(path string, uid, gid int, mode os.FileMode) (bool, error) {
	own, ok, err := sysprobe.StatOwnership(path)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, errdefs.NewCustomError(errdefs.ErrTypeFileOperation, path+" does not exist")
	}

	changed := false
	if own.UID != uid || own.GID != gid {
		if err := os.Chown(path, uid, gid); err != nil {
			return changed, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to chown "+path, err)
		}
		changed = true
	}
	if own.Mode != mode {
		if err := os.Chmod(path, mode); err != nil {
			return changed, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to chmod "+path, err)
		}
		changed = true
	}

	if !changed {
		m.log(fmt.Sprintf("Ownership and mode of %s already satisfied", path))
	}
	return changed, nil
}

// EnsureDesktopEntryFile writes payload to path only when the file does
// not exist yet, so local customizations survive re-runs.
func (m *Mutators) EnsureDesktopEntryFile(path, payload string) (bool, error) {
	if sysprobe.FileExists(path) {
		m.log(fmt.Sprintf("Desktop entry %s already present, leaving as-is", path))
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to create parent of "+path, err)
	}
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to write "+path, err)
	}

	m.log(fmt.Sprintf("Created desktop entry %s", path))
	return true, nil
}

// EnsureFileContent writes payload verbatim when the current content
// differs. Re-running with the same payload is a no-op.
func (m *Mutators) EnsureFileContent(path, payload string, mode os.FileMode) (bool, error) {
	if data, err := os.ReadFile(path); err == nil && string(data) == payload {
		m.log(fmt.Sprintf("File %s already up to date", path))
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to create parent of "+path, err)
	}
	if err := os.WriteFile(path, []byte(payload), mode); err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to write "+path, err)
	}
	if err := os.Chmod(path, mode); err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to chmod "+path, err)
	}

	m.log(fmt.Sprintf("Wrote %s", path))
	return true, nil
}

// EnsureExecutableFile writes a helper script verbatim with mode 0755.
func (m *Mutators) EnsureExecutableFile(path, payload string) (bool, error) {
	return m.EnsureFileContent(path, payload, 0o755)
}

// RewriteConfigField rewrites `field = value` lines in a structured
// config file. The pattern is anchored at line start (optionally
// commented out) so unrelated lines never match, and reapplying the same
// replacement yields an identical file. When the key is absent entirely
// the line is appended.
func (m *Mutators) RewriteConfigField(path, field, value string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, errdefs.NewCustomError(errdefs.ErrTypeFileOperation, path+" does not exist")
		}
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to read "+path, err)
	}

	replacement := field + "=" + value
	fieldRegex := regexp.MustCompile(`(?m)^#?\s*` + regexp.QuoteMeta(field) + `\s*=.*$`)

	var updated string
	if fieldRegex.Match(data) {
		updated = fieldRegex.ReplaceAllString(string(data), replacement)
	} else {
		updated = string(data)
		if len(updated) > 0 && !strings.HasSuffix(updated, "\n") {
			updated += "\n"
		}
		updated += replacement + "\n"
	}

	if updated == string(data) {
		m.log(fmt.Sprintf("Field %s in %s already satisfied", field, path))
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to stat "+path, err)
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to write "+path, err)
	}

	m.log(fmt.Sprintf("Rewrote %s in %s", field, path))
	return true, nil
}
