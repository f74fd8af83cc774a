package osinfo

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
)

var AllSupportedSystems = []string{
	"freebsd",
	"ghostbsd",
}

type OSInfo struct {
	System       string
	Version      string
	VersionID    string
	PrettyName   string
	Architecture string
}

var getOsFunc = getGoos
var getArchFunc = getGoarch

func getGoos() string {
	return runtime.GOOS
}

func getGoarch() string {
	return runtime.GOARCH
}

func GetOSInfo() (*OSInfo, error) {
	if getOsFunc() != "freebsd" {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeNotBSD, fmt.Sprintf("Only FreeBSD-family hosts are supported, but I found %s", getOsFunc()))
	}

	if getArchFunc() != "amd64" && getArchFunc() != "arm64" {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeNotBSD, fmt.Sprintf("Only amd64 and arm64 are supported, but I found %s", getArchFunc()))
	}

	info := &OSInfo{
		Architecture: getArchFunc(),
	}

	err := detectBSDRelease(info)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(AllSupportedSystems, info.System) {
		return nil, errdefs.NewCustomError(errdefs.ErrTypeNotBSD, fmt.Sprintf("Unsupported system: %s", info.System))
	}

	return info, nil
}
