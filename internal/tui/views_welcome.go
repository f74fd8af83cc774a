package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) viewWelcome() string {
	var b strings.Builder

	b.WriteString(m.renderBanner())
	b.WriteString("\n")

	title := m.styles.Title.Render("Sway session installer")
	b.WriteString(title)
	b.WriteString("\n")

	if m.osInfo != nil {
		info := fmt.Sprintf("System: %s (%s)\n", m.osInfo.PrettyName, m.osInfo.Architecture)
		b.WriteString(m.styles.Normal.Render(info))
		b.WriteString("\n")

		overview := "This will install Sway and seatd, enable the required services,\n"
		overview += "and wire up a LightDM-launchable Wayland session for one user.\n"
		b.WriteString(m.styles.Normal.Render(overview))
		b.WriteString("\n\n")

	} else if m.isLoading {
		spinner := m.spinner.View()
		loading := m.styles.Normal.Render("Detecting system...")
		b.WriteString(fmt.Sprintf("%s %s\n\n", spinner, loading))
	}

	if m.osInfo != nil {
		help := m.styles.Subtle.Render("Press Enter to continue, Ctrl+C to quit")
		b.WriteString(help)
	}

	return b.String()
}

func (m Model) updateWelcomeState(msg tea.Msg) (tea.Model, tea.Cmd) {
	if completeMsg, ok := msg.(osInfoCompleteMsg); ok {
		m.isLoading = false
		if completeMsg.err != nil {
			m.err = completeMsg.err
			m.state = StateError
		} else {
			m.osInfo = completeMsg.info
		}
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if m.osInfo != nil {
				m.state = StateUsernamePrompt
				return m, m.usernameInput.Focus()
			}
		}
	}
	return m, nil
}
