package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vimanuelt/wayland-installation/internal/reconcile"
)

const logTailLines = 8

func (m Model) viewReconciling() string {
	var b strings.Builder

	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render("Reconciling system state"))
	b.WriteString("\n\n")

	b.WriteString("  " + m.progressBar.ViewAs(m.percent))
	b.WriteString("\n\n")

	step := m.currentStep
	if step == "" {
		step = "Starting..."
	}
	b.WriteString(fmt.Sprintf("  %s %s\n\n", m.spinner.View(), m.styles.Normal.Render(step)))

	tail := m.logLines
	if len(tail) > logTailLines {
		tail = tail[len(tail)-logTailLines:]
	}
	for _, line := range tail {
		b.WriteString(m.styles.LogLine.Render("  " + line))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) updateReconcilingState(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reconcileProgressMsg:
		m.percent = msg.progress.Progress
		if msg.progress.Step != "" {
			m.currentStep = msg.progress.Step
		}
		if msg.progress.LogOutput != "" {
			m.logLines = append(m.logLines, msg.progress.LogOutput)
		}
		return m, m.listenForProgress()

	case reconcileDoneMsg:
		m.isLoading = false
		m.result = msg.result
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
		} else {
			m.percent = 1.0
			m.state = StateComplete
		}
		return m, nil
	}
	return m, nil
}

func (m Model) viewComplete() string {
	var b strings.Builder

	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(m.styles.Success.Render("Sway session is ready"))
	b.WriteString("\n\n")

	if m.result != nil {
		b.WriteString(m.renderResultSection("Changed", m.result.Changed))
		b.WriteString(m.renderResultSection("Already satisfied", m.result.Satisfied))
		b.WriteString(m.renderResultSection("Skipped", m.result.Skipped))

		if m.result.NeedsRelogin {
			b.WriteString("\n")
			b.WriteString(m.styles.Warning.Render("  Log out and back in (or select Sway in LightDM) to pick up group membership."))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render("Press Enter to exit"))
	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(m.styles.Error.Render("Reconciliation failed"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.styles.Normal.Render("  " + m.err.Error()))
		b.WriteString("\n")
	}

	if m.result != nil && m.result.State == reconcile.StateRolledBack {
		b.WriteString("\n")
		b.WriteString(m.renderResultSection("Rolled back", m.result.RolledBack))
		b.WriteString(m.styles.Subtle.Render("  Configuration backups were kept alongside the originals."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Subtle.Render("Press Enter to exit"))
	return b.String()
}

func (m Model) renderResultSection(title string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Key.Render("  " + title + ":"))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString(m.styles.Normal.Render("    • " + item))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
