package main

import (
	"github.com/vimanuelt/wayland-installation/internal/log"
)

var Version = "dev"

func init() {
	rootCmd.Flags().StringVar(&flagUser, "user", "", "User that gets the Sway session")
	rootCmd.Flags().StringVar(&flagResolution, "resolution", "", "Screen resolution (e.g. 1920x1080, or auto to probe a running session)")
	rootCmd.Flags().BoolVar(&flagOptional, "optional", false, "Install optional packages (swaylock, grim, mako, ...)")
	rootCmd.Flags().BoolVar(&flagRestartDM, "restart-dm", false, "Restart the display manager after reconciliation")
	rootCmd.Flags().BoolVar(&flagReboot, "reboot", false, "Reboot after reconciliation")
	rootCmd.Flags().BoolVar(&flagYes, "yes", false, "Run non-interactively without the TUI")
	rootCmd.Flags().BoolVar(&flagNoStart, "no-start", false, "Enable services at boot but do not start them now")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to an overrides file (default "+defaultOverridesHint+")")

	checkCmd.Flags().StringVar(&flagUser, "user", "", "User whose session wiring to inspect")

	rootCmd.AddCommand(versionCmd, checkCmd)
}

func main() {
	defer log.Close()

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
