package profile

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
)

// ShellKind is the closed set of login shells with distinct profile
// dotfiles. Anything unrecognized falls back to the POSIX default.
type ShellKind int

const (
	ShellPOSIX ShellKind = iota
	ShellBash
	ShellZsh
	ShellFish
)

func (k ShellKind) String() string {
	switch k {
	case ShellBash:
		return "bash"
	case ShellZsh:
		return "zsh"
	case ShellFish:
		return "fish"
	default:
		return "posix"
	}
}

// Target is the resolved per-user profile destination for environment
// blocks. It is computed once per run and immutable afterwards.
type Target struct {
	UserName    string
	HomeDir     string
	Shell       ShellKind
	ProfilePath string
}

// DetectShell classifies a login shell path.
func DetectShell(shellPath string) ShellKind {
	switch filepath.Base(shellPath) {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	default:
		return ShellPOSIX
	}
}

// Resolve maps a user, home directory, and login shell to the dotfile the
// environment block should land in.
func Resolve(userName, homeDir, shellPath string) Target {
	kind := DetectShell(shellPath)

	var profilePath string
	switch kind {
	case ShellBash:
		profilePath = filepath.Join(homeDir, ".bash_profile")
	case ShellZsh:
		profilePath = filepath.Join(homeDir, ".zshrc")
	case ShellFish:
		profilePath = filepath.Join(homeDir, ".config", "fish", "config.fish")
	default:
		profilePath = filepath.Join(homeDir, ".profile")
	}

	return Target{
		UserName:    userName,
		HomeDir:     homeDir,
		Shell:       kind,
		ProfilePath: profilePath,
	}
}

// LookupTarget resolves a Target from the live passwd database via pw(8).
func LookupTarget(ctx context.Context, userName string) (Target, error) {
	cmd := exec.CommandContext(ctx, "pw", "usershow", "-n", userName)
	output, err := cmd.Output()
	if err != nil {
		return Target{}, errdefs.WrapCustomError(errdefs.ErrTypeInvalidUserInput, "unknown user "+userName, err)
	}

	// passwd(5) line: name:pw:uid:gid:class:change:expire:gecos:home:shell
	fields := strings.Split(strings.TrimSpace(string(output)), ":")
	if len(fields) < 10 {
		return Target{}, errdefs.NewCustomError(errdefs.ErrTypeInvalidUserInput, "malformed passwd entry for "+userName)
	}

	return Resolve(userName, fields[8], fields[9]), nil
}
