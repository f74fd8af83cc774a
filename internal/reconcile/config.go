package reconcile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/vimanuelt/wayland-installation/internal/profile"
	"github.com/vimanuelt/wayland-installation/internal/session"
)

// PackageRole decides what a failed install means: essential failures
// abort the run, optional failures are logged and skipped.
type PackageRole int

const (
	RoleEssential PackageRole = iota
	RoleOptional
)

// PackageSpec names one desired package and its failure policy.
type PackageSpec struct {
	Name string
	Role PackageRole
}

// FinalizeMode selects what happens once reconciliation converged.
type FinalizeMode int

const (
	FinalizeNone FinalizeMode = iota
	FinalizeRestartDM
	FinalizeReboot
)

// SupportedResolutions is the closed menu offered to the user.
var SupportedResolutions = []string{
	"1366x768",
	"1920x1080",
	"2560x1440",
	"3840x2160",
}

// DefaultResolution is the fallback for invalid or absent choices.
const DefaultResolution = "1366x768"

// NormalizeResolution validates a resolution choice against the supported
// set, falling back to the default rather than aborting. The returned
// bool reports whether a fallback happened.
func NormalizeResolution(input string) (string, bool) {
	for _, r := range SupportedResolutions {
		if input == r {
			return r, false
		}
	}
	return DefaultResolution, true
}

// RunConfig is the immutable per-run configuration, constructed once at
// startup from flags, prompts, and the optional override file. No
// component mutates it after construction.
type RunConfig struct {
	Target     profile.Target
	Resolution string

	IncludeOptional bool
	StartServices   bool
	Finalize        FinalizeMode

	EssentialPackages []PackageSpec
	OptionalPackages  []PackageSpec

	SeatGroup string
	LockPath  string
	Paths     Paths
}

// Paths collects every file the run may touch, so tests can point the
// orchestrator at a scratch tree.
type Paths struct {
	DesktopEntry  string
	LightDMConf   string
	SessionScript string
	DevdRule      string
	ToggleScript  string
	SwayConfig    string
	SeatdSocket   string
}

// DefaultPaths returns the live host locations, with the per-user Sway
// config resolved under homeDir.
func DefaultPaths(homeDir string) Paths {
	return Paths{
		DesktopEntry:  session.DesktopEntryPath,
		LightDMConf:   session.LightDMConfPath,
		SessionScript: session.SessionScriptPath,
		DevdRule:      session.DevdRulePath,
		ToggleScript:  session.ToggleScriptPath,
		SwayConfig:    filepath.Join(homeDir, ".config", "sway", "config"),
		SeatdSocket:   "/var/run/seatd.sock",
	}
}

// DefaultLockPath is the advisory lock guarding against concurrent runs.
const DefaultLockPath = "/var/run/swayinstall.lock"

// DefaultOverridesPath is where operators drop package-set overrides.
const DefaultOverridesPath = "/usr/local/etc/swayinstall.toml"

// DefaultPackages returns the built-in package sets for a Sway session on
// FreeBSD/GhostBSD.
func DefaultPackages() (essential, optional []PackageSpec) {
	essential = []PackageSpec{
		{Name: "sway", Role: RoleEssential},
		{Name: "seatd", Role: RoleEssential},
		{Name: "foot", Role: RoleEssential},
		{Name: "wmenu", Role: RoleEssential},
		{Name: "swaybg", Role: RoleEssential},
		{Name: "wlr-randr", Role: RoleEssential},
		{Name: "dbus", Role: RoleEssential},
	}
	optional = []PackageSpec{
		{Name: "swaylock", Role: RoleOptional},
		{Name: "swayidle", Role: RoleOptional},
		{Name: "grim", Role: RoleOptional},
		{Name: "slurp", Role: RoleOptional},
		{Name: "wl-clipboard", Role: RoleOptional},
		{Name: "mako", Role: RoleOptional},
	}
	return essential, optional
}

// Overrides is the shape of the optional operator-provided TOML file that
// replaces the built-in package sets or lock path.
type Overrides struct {
	EssentialPackages []string `toml:"essential_packages"`
	OptionalPackages  []string `toml:"optional_packages"`
	SeatGroup         string   `toml:"seat_group"`
	LockPath          string   `toml:"lock_path"`
}

// LoadOverrides reads path if it exists. A missing file yields zero
// overrides, not an error.
func LoadOverrides(path string) (Overrides, error) {
	var ov Overrides
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ov, nil
	}
	if _, err := toml.DecodeFile(path, &ov); err != nil {
		return ov, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return ov, nil
}

// Apply folds non-empty overrides into a RunConfig under construction.
func (ov Overrides) Apply(cfg *RunConfig) {
	if len(ov.EssentialPackages) > 0 {
		cfg.EssentialPackages = nil
		for _, name := range ov.EssentialPackages {
			cfg.EssentialPackages = append(cfg.EssentialPackages, PackageSpec{Name: name, Role: RoleEssential})
		}
	}
	if len(ov.OptionalPackages) > 0 {
		cfg.OptionalPackages = nil
		for _, name := range ov.OptionalPackages {
			cfg.OptionalPackages = append(cfg.OptionalPackages, PackageSpec{Name: name, Role: RoleOptional})
		}
	}
	if ov.SeatGroup != "" {
		cfg.SeatGroup = ov.SeatGroup
	}
	if ov.LockPath != "" {
		cfg.LockPath = ov.LockPath
	}
}

// NewRunConfig builds the default configuration for a user.
func NewRunConfig(target profile.Target) RunConfig {
	essential, optional := DefaultPackages()
	return RunConfig{
		Target:            target,
		Resolution:        DefaultResolution,
		IncludeOptional:   true,
		StartServices:     true,
		Finalize:          FinalizeNone,
		EssentialPackages: essential,
		OptionalPackages:  optional,
		SeatGroup:         "seatd",
		LockPath:          DefaultLockPath,
		Paths:             DefaultPaths(target.HomeDir),
	}
}
