package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

type AppTheme struct {
	Primary    string
	Secondary  string
	Accent     string
	Text       string
	Subtle     string
	Error      string
	Warning    string
	Success    string
	Background string
	Surface    string
}

func TealTheme() AppTheme {
	return AppTheme{
		Primary:    "#8fd6c6",
		Secondary:  "#2e5f56",
		Accent:     "#d2f2ea",
		Text:       "#e4e9e7",
		Subtle:     "#aab8b4",
		Error:      "#ffb4ab",
		Warning:    "#eec78e",
		Success:    "#8fd6c6",
		Background: "#121716",
		Surface:    "#1c2321",
	}
}

type Styles struct {
	Title          lipgloss.Style
	Normal         lipgloss.Style
	Bold           lipgloss.Style
	Subtle         lipgloss.Style
	Error          lipgloss.Style
	Warning        lipgloss.Style
	Success        lipgloss.Style
	Key            lipgloss.Style
	SelectedOption lipgloss.Style
	LogLine        lipgloss.Style
	SpinnerStyle   lipgloss.Style
}

func NewStyles(theme AppTheme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Primary)).
			Bold(true).
			MarginLeft(1).
			MarginBottom(1),

		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Text)),

		Bold: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Text)).
			Bold(true),

		Subtle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Error)),

		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Warning)),

		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Success)).
			Bold(true),

		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Accent)).
			Bold(true),

		SelectedOption: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Primary)).
			Bold(true),

		LogLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)),

		SpinnerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Primary)),
	}
}

func newSpinner(styles Styles) spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle
	return s
}

func newProgressBar() progress.Model {
	return progress.New(progress.WithDefaultGradient())
}
