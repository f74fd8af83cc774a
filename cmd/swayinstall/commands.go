package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vimanuelt/wayland-installation/internal/errdefs"
	"github.com/vimanuelt/wayland-installation/internal/log"
	"github.com/vimanuelt/wayland-installation/internal/osinfo"
	"github.com/vimanuelt/wayland-installation/internal/profile"
	"github.com/vimanuelt/wayland-installation/internal/reconcile"
	"github.com/vimanuelt/wayland-installation/internal/tui"
	"github.com/vimanuelt/wayland-installation/internal/wayland"
)

const defaultOverridesHint = reconcile.DefaultOverridesPath

var detectResolution = wayland.DetectResolution

var (
	flagUser       string
	flagResolution string
	flagOptional   bool
	flagRestartDM  bool
	flagReboot     bool
	flagYes        bool
	flagNoStart    bool
	flagConfig     string
)

var rootCmd = &cobra.Command{
	Use:   "swayinstall",
	Short: "Set up a Sway Wayland session on FreeBSD",
	Long: "swayinstall brings a FreeBSD or GhostBSD host from a bare console\n" +
		"to a working Sway compositor launchable from LightDM: packages,\n" +
		"seatd, group membership, session files, and per-user configuration.\n" +
		"Runs are idempotent; re-running converges without duplicating state.",
	SilenceUsage: true,
	RunE:         runRoot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("swayinstall v%s\n", Version)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report current session state without changing anything",
	Long:  "Probes packages, services, groups, and session files and reports which reconciliation steps a run would perform. Makes no changes.",
	RunE:  runCheck,
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := log.InitFile(log.DefaultLogPath); err != nil {
		log.Warnf("continuing without log file: %v", err)
	}

	if os.Geteuid() != 0 {
		return errdefs.NewCustomError(errdefs.ErrTypePermissionDenied, "swayinstall must run as root (try doas or sudo)")
	}

	if flagRestartDM && flagReboot {
		return errdefs.NewCustomError(errdefs.ErrTypeInvalidUserInput, "--restart-dm and --reboot are mutually exclusive")
	}

	overridesPath := flagConfig
	if overridesPath == "" {
		overridesPath = reconcile.DefaultOverridesPath
	}
	overrides, err := reconcile.LoadOverrides(overridesPath)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && !flagYes
	if interactive {
		return runInteractive(overrides)
	}
	return runHeadless(cmd.Context(), overrides)
}

// configFor folds flags and the overrides file into a run configuration
// for a resolved user. Shared by the TUI and headless paths.
func configFor(target profile.Target, overrides reconcile.Overrides) reconcile.RunConfig {
	cfg := reconcile.NewRunConfig(target)
	overrides.Apply(&cfg)
	cfg.IncludeOptional = flagOptional
	cfg.StartServices = !flagNoStart
	if flagRestartDM {
		cfg.Finalize = reconcile.FinalizeRestartDM
	}
	if flagReboot {
		cfg.Finalize = reconcile.FinalizeReboot
	}
	if flagResolution != "" {
		choice := flagResolution
		if choice == "auto" {
			detected, err := detectResolution(context.Background())
			if err != nil {
				log.Warnf("could not detect resolution, using %s: %v", reconcile.DefaultResolution, err)
				detected = reconcile.DefaultResolution
			}
			choice = detected
		}
		resolved, fellBack := reconcile.NormalizeResolution(choice)
		if fellBack {
			log.Warnf("unsupported resolution %q, using %s", choice, resolved)
		}
		cfg.Resolution = resolved
	}
	return cfg
}

func runInteractive(overrides reconcile.Overrides) error {
	runner := &orchestratorRunner{}
	configure := func(target profile.Target) reconcile.RunConfig {
		return configFor(target, overrides)
	}

	model := tui.NewModel(Version, runner, profile.LookupTarget, configure)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func runHeadless(ctx context.Context, overrides reconcile.Overrides) error {
	if flagUser == "" {
		return errdefs.NewCustomError(errdefs.ErrTypeInvalidUserInput, "--user is required in non-interactive mode")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := osinfo.GetOSInfo()
	if err != nil {
		return err
	}
	log.Infof("Detected %s (%s)", info.PrettyName, info.Architecture)

	target, err := profile.LookupTarget(ctx, flagUser)
	if err != nil {
		return err
	}
	cfg := configFor(target, overrides)

	runner := &orchestratorRunner{}
	progressChan := make(chan reconcile.ProgressMsg, 64)
	logChan := make(chan string, 256)
	go drainProgress(progressChan)
	go drainLogs(logChan)

	result, err := runner.Run(ctx, cfg, progressChan, logChan)
	if err != nil {
		if result != nil && result.State == reconcile.StateRolledBack {
			log.Warnf("Rolled back freshly installed packages: %v", result.RolledBack)
		}
		return err
	}

	printResult(result)
	return nil
}

func drainProgress(progressChan <-chan reconcile.ProgressMsg) {
	for msg := range progressChan {
		if msg.Step != "" {
			log.Infof("[%3.0f%%] %s", msg.Progress*100, msg.Step)
		}
	}
}

func drainLogs(logChan <-chan string) {
	for line := range logChan {
		log.Debug(line)
	}
}

func printResult(result *reconcile.Result) {
	for _, item := range result.Changed {
		fmt.Printf("  changed:   %s\n", item)
	}
	for _, item := range result.Satisfied {
		fmt.Printf("  satisfied: %s\n", item)
	}
	for _, item := range result.Skipped {
		fmt.Printf("  skipped:   %s\n", item)
	}
	if result.NeedsRelogin {
		fmt.Println("\nLog out and back in (or select Sway in LightDM) to pick up group membership.")
	}
}
