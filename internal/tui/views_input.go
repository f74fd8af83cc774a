package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vimanuelt/wayland-installation/internal/reconcile"
)

func (m Model) viewUsernamePrompt() string {
	var b strings.Builder

	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render("Which user gets the Sway session?"))
	b.WriteString("\n\n")

	b.WriteString("  " + m.usernameInput.View())
	b.WriteString("\n\n")

	if m.inputErr != "" {
		b.WriteString(m.styles.Error.Render("  " + m.inputErr))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.Subtle.Render("Press Enter to confirm"))
	return b.String()
}

func (m Model) updateUsernameState(msg tea.Msg) (tea.Model, tea.Cmd) {
	if resolved, ok := msg.(userResolvedMsg); ok {
		if resolved.err != nil {
			// Invalid input reprompts; it never aborts the run.
			m.inputErr = resolved.err.Error()
			return m, nil
		}
		m.inputErr = ""
		m.target = resolved.target
		m.state = StateOptionalPackages
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		name := strings.TrimSpace(m.usernameInput.Value())
		if name == "" {
			m.inputErr = "username must not be empty"
			return m, nil
		}
		resolveUser := m.resolveUser
		return m, func() tea.Msg {
			target, err := resolveUser(context.Background(), name)
			return userResolvedMsg{target: target, err: err}
		}
	}

	var cmd tea.Cmd
	m.usernameInput, cmd = m.usernameInput.Update(msg)
	return m, cmd
}

func (m Model) viewOptionalPackages() string {
	var b strings.Builder

	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render("Install optional packages?"))
	b.WriteString("\n\n")

	options := []struct {
		name        string
		description string
	}{
		{"Yes", "swaylock, swayidle, grim, slurp, wl-clipboard, mako"},
		{"No", "Essential packages only"},
	}

	for i, option := range options {
		if i == m.includeOptional {
			b.WriteString(m.styles.SelectedOption.Render("▶ " + option.name))
		} else {
			b.WriteString(m.styles.Normal.Render("  " + option.name))
		}
		b.WriteString("\n")
		b.WriteString(m.styles.Subtle.Render("  " + option.description))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.Subtle.Render("Use ↑/↓ to navigate, Enter to select"))
	return b.String()
}

func (m Model) updateOptionalPackagesState(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "up":
			if m.includeOptional > 0 {
				m.includeOptional--
			}
		case "down":
			if m.includeOptional < 1 {
				m.includeOptional++
			}
		case "enter":
			m.state = StateSelectResolution
		}
	}
	return m, nil
}

func (m Model) viewSelectResolution() string {
	var b strings.Builder

	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render("Choose screen resolution"))
	b.WriteString("\n\n")

	for i, res := range reconcile.SupportedResolutions {
		label := res
		if res == reconcile.DefaultResolution {
			label += " (default)"
		}
		if i == m.selectedResolution {
			b.WriteString(m.styles.SelectedOption.Render("▶ " + label))
		} else {
			b.WriteString(m.styles.Normal.Render("  " + label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render("Use ↑/↓ to navigate, Enter to select"))
	return b.String()
}

func (m Model) updateSelectResolutionState(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "up":
			if m.selectedResolution > 0 {
				m.selectedResolution--
			}
		case "down":
			if m.selectedResolution < len(reconcile.SupportedResolutions)-1 {
				m.selectedResolution++
			}
		case "enter":
			m.cfg = m.configure(m.target)
			m.cfg.IncludeOptional = m.includeOptional == 0
			m.cfg.Resolution = reconcile.SupportedResolutions[m.selectedResolution]
			m.state = StateConfirm
		}
	}
	return m, nil
}

func (m Model) viewConfirm() string {
	var b strings.Builder

	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render("Ready to reconcile"))
	b.WriteString("\n\n")

	rows := []struct{ key, value string }{
		{"User", m.cfg.Target.UserName},
		{"Profile file", m.cfg.Target.ProfilePath},
		{"Resolution", m.cfg.Resolution},
		{"Optional packages", yesNo(m.cfg.IncludeOptional)},
		{"Start services now", yesNo(m.cfg.StartServices)},
		{"After reconciliation", finalizeLabel(m.cfg.Finalize)},
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %s %s\n", m.styles.Key.Render(row.key+":"), m.styles.Normal.Render(row.value)))
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render("Press Enter to start, Ctrl+C to quit"))
	return b.String()
}

func (m Model) updateConfirmState(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		m.state = StateReconciling
		m.isLoading = true
		return m, tea.Batch(m.spinner.Tick, m.startReconciliation(), m.listenForProgress())
	}
	return m, nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func finalizeLabel(mode reconcile.FinalizeMode) string {
	switch mode {
	case reconcile.FinalizeRestartDM:
		return "restart display manager"
	case reconcile.FinalizeReboot:
		return "reboot"
	default:
		return "nothing (re-login required)"
	}
}
