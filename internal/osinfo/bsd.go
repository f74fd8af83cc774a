package osinfo

import (
	"bufio"
	"os"
	"strings"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
)

var osOpen = os.Open

// detectBSDRelease reads /etc/os-release, which both FreeBSD and GhostBSD
// ship (GhostBSD overlays its own ID while keeping the FreeBSD version).
func detectBSDRelease(info *OSInfo) error {
	if err := readOSRelease(info); err == nil {
		return nil
	}

	return errdefs.NewCustomError(errdefs.ErrTypeGeneric, "Failed to detect BSD release")
}

func readOSRelease(info *OSInfo) error {
	file, err := osOpen("/etc/os-release")
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := parts[0]
		value := strings.Trim(parts[1], "\"")

		switch key {
		case "ID":
			info.System = strings.ToLower(value)
		case "VERSION_ID":
			info.VersionID = value
		case "VERSION":
			info.Version = value
		case "PRETTY_NAME":
			info.PrettyName = value
		}
	}

	return scanner.Err()
}
