package sysprobe

import (
	"io/fs"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
)

// The probes in this package are read-only views over live system state.
// Every query tolerates absence: a missing file, group, or command is a
// negative result, not a failure.

// CommandExists reports whether a tool is resolvable on PATH.
func CommandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// FileContains reports whether the file at path contains the marker
// substring. A missing file contains nothing.
func FileContains(path, marker string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to read "+path, err)
	}
	return strings.Contains(string(data), marker), nil
}

// FileExists reports whether path names an existing file or directory.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FileOwnership describes the owner, group, and permission bits of a file.
type FileOwnership struct {
	UID  int
	GID  int
	Mode fs.FileMode
}

// StatOwnership returns owner/group/mode for path. ok is false when the
// file does not exist.
func StatOwnership(path string) (own FileOwnership, ok bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileOwnership{}, false, nil
		}
		return FileOwnership{}, false, errdefs.WrapCustomError(errdefs.ErrTypeFileOperation, "failed to stat "+path, err)
	}

	stat, statOk := info.Sys().(*syscall.Stat_t)
	if !statOk {
		return FileOwnership{}, false, errdefs.NewCustomError(errdefs.ErrTypeFileOperation, "no unix stat data for "+path)
	}

	return FileOwnership{
		UID:  int(stat.Uid),
		GID:  int(stat.Gid),
		Mode: info.Mode().Perm(),
	}, true, nil
}

// LookupGroupID resolves a group name to its numeric gid.
func LookupGroupID(name string) (int, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, errdefs.WrapCustomError(errdefs.ErrTypeGroupOperation, "unknown group "+name, err)
	}
	return strconv.Atoi(g.Gid)
}

// LookupUserIDs resolves a username to numeric uid/gid.
func LookupUserIDs(userName string) (uid, gid int, err error) {
	u, err := user.Lookup(userName)
	if err != nil {
		return 0, 0, errdefs.WrapCustomError(errdefs.ErrTypeInvalidUserInput, "unknown user "+userName, err)
	}
	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, err
	}
	gid, err = strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}
