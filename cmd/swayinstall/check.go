package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vimanuelt/wayland-installation/internal/osinfo"
	"github.com/vimanuelt/wayland-installation/internal/pkgmgr"
	"github.com/vimanuelt/wayland-installation/internal/profile"
	"github.com/vimanuelt/wayland-installation/internal/reconcile"
	"github.com/vimanuelt/wayland-installation/internal/session"
	"github.com/vimanuelt/wayland-installation/internal/svcmgr"
	"github.com/vimanuelt/wayland-installation/internal/sysprobe"
	"github.com/vimanuelt/wayland-installation/internal/wayland"
)

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	info, err := osinfo.GetOSInfo()
	if err != nil {
		return err
	}
	fmt.Printf("System: %s (%s)\n\n", info.PrettyName, info.Architecture)

	logChan := make(chan string, 64)
	go func() {
		for range logChan {
		}
	}()

	pkg, err := pkgmgr.NewPackageManager(info.System, logChan)
	if err != nil {
		return err
	}
	svc, err := svcmgr.NewServiceManager(info.System, logChan)
	if err != nil {
		return err
	}

	essential, optional := reconcile.DefaultPackages()
	fmt.Println("Packages:")
	for _, spec := range append(essential, optional...) {
		installed, err := pkg.IsInstalled(ctx, spec.Name)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s\n", statusMark(installed), spec.Name)
	}

	fmt.Println("\nServices:")
	for _, name := range []string{"seatd", "dbus", "lightdm"} {
		enabled, err := svc.IsEnabledAtBoot(ctx, name)
		if err != nil {
			return err
		}
		running, err := svc.IsRunning(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s (enabled=%v running=%v)\n", statusMark(enabled && running), name, enabled, running)
	}

	fmt.Println("\nSession files:")
	for _, path := range []string{
		session.DesktopEntryPath,
		session.SessionScriptPath,
		session.LightDMConfPath,
		session.DevdRulePath,
	} {
		fmt.Printf("  %s %s\n", statusMark(sysprobe.FileExists(path)), path)
	}

	hasLaunch, err := launchBlockPresent(session.SessionScriptPath)
	if err != nil {
		return err
	}
	fmt.Printf("  %s launch block in %s\n", statusMark(hasLaunch), session.SessionScriptPath)

	if resolution, err := wayland.DetectResolution(ctx); err == nil {
		fmt.Printf("\nActive Wayland output: %s\n", resolution)
	}

	if flagUser != "" {
		if err := checkUser(ctx, flagUser); err != nil {
			return err
		}
	}

	return nil
}

func checkUser(ctx context.Context, userName string) error {
	target, err := profile.LookupTarget(ctx, userName)
	if err != nil {
		return err
	}

	fmt.Printf("\nUser %s (%s):\n", target.UserName, target.Shell)

	hasBlock, err := sysprobe.FileContains(target.ProfilePath, session.MarkerEnvBlock)
	if err != nil {
		return err
	}
	fmt.Printf("  %s environment block in %s\n", statusMark(hasBlock), target.ProfilePath)

	groups := sysprobe.NewPwGroups(nil)
	for _, group := range []string{"seatd", "video"} {
		member, err := groups.UserInGroup(ctx, target.UserName, group)
		if err != nil {
			return err
		}
		fmt.Printf("  %s member of %s\n", statusMark(member), group)
	}

	return nil
}

// launchBlockPresent reports whether the system session wrapper carries
// the marker-guarded launch stanza.
func launchBlockPresent(scriptPath string) (bool, error) {
	return sysprobe.FileContains(scriptPath, session.MarkerSessionLaunch)
}

func statusMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
