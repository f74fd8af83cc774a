package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vimanuelt/wayland-installation/internal/osinfo"
	"github.com/vimanuelt/wayland-installation/internal/profile"
	"github.com/vimanuelt/wayland-installation/internal/reconcile"
)

// Runner executes a reconciliation run. The production implementation
// wires the real package manager and service supervisor; tests inject a
// fake.
type Runner interface {
	Run(ctx context.Context, cfg reconcile.RunConfig, progressChan chan<- reconcile.ProgressMsg, logChan chan<- string) (*reconcile.Result, error)
}

// ResolveUserFunc maps a typed username to a profile target, or an error
// that sends the user back to the prompt.
type ResolveUserFunc func(ctx context.Context, userName string) (profile.Target, error)

// ConfigureFunc builds the run configuration for a resolved user,
// folding in CLI flags and override-file settings.
type ConfigureFunc func(target profile.Target) reconcile.RunConfig

type Model struct {
	version     string
	styles      Styles
	state       ApplicationState
	runner      Runner
	resolveUser ResolveUserFunc
	configure   ConfigureFunc

	osInfo    *osinfo.OSInfo
	isLoading bool
	err       error
	inputErr  string

	usernameInput      textinput.Model
	includeOptional    int
	selectedResolution int

	target profile.Target
	cfg    reconcile.RunConfig
	result *reconcile.Result

	spinner     spinner.Model
	progressBar progress.Model
	percent     float64
	currentStep string

	progressChan chan reconcile.ProgressMsg
	logChan      chan string
	logLines     []string

	width  int
	height int
}

func NewModel(version string, runner Runner, resolveUser ResolveUserFunc, configure ConfigureFunc) Model {
	styles := NewStyles(TealTheme())

	input := textinput.New()
	input.Placeholder = "username"
	input.CharLimit = 32
	input.Focus()

	return Model{
		version:       version,
		styles:        styles,
		state:         StateWelcome,
		runner:        runner,
		resolveUser:   resolveUser,
		configure:     configure,
		isLoading:     true,
		usernameInput: input,
		spinner:       newSpinner(styles),
		progressBar:   newProgressBar(),
		progressChan:  make(chan reconcile.ProgressMsg, 64),
		logChan:       make(chan string, 256),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.detectOSInfo(), m.listenForLogs())
}

func (m Model) detectOSInfo() tea.Cmd {
	return func() tea.Msg {
		info, err := osinfo.GetOSInfo()
		return osInfoCompleteMsg{info: info, err: err}
	}
}

func (m Model) listenForLogs() tea.Cmd {
	return func() tea.Msg {
		return logMsg{message: <-m.logChan}
	}
}

func (m Model) listenForProgress() tea.Cmd {
	return func() tea.Msg {
		return reconcileProgressMsg{progress: <-m.progressChan}
	}
}

func (m Model) startReconciliation() tea.Cmd {
	return func() tea.Msg {
		result, err := m.runner.Run(context.Background(), m.cfg, m.progressChan, m.logChan)
		return reconcileDoneMsg{result: result, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case logMsg:
		m.logLines = append(m.logLines, msg.message)
		if len(m.logLines) > 200 {
			m.logLines = m.logLines[len(m.logLines)-200:]
		}
		return m, m.listenForLogs()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	switch m.state {
	case StateWelcome:
		return m.updateWelcomeState(msg)
	case StateUsernamePrompt:
		return m.updateUsernameState(msg)
	case StateOptionalPackages:
		return m.updateOptionalPackagesState(msg)
	case StateSelectResolution:
		return m.updateSelectResolutionState(msg)
	case StateConfirm:
		return m.updateConfirmState(msg)
	case StateReconciling:
		return m.updateReconcilingState(msg)
	case StateComplete, StateError:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "enter", "q", "esc":
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case StateWelcome:
		return m.viewWelcome()
	case StateUsernamePrompt:
		return m.viewUsernamePrompt()
	case StateOptionalPackages:
		return m.viewOptionalPackages()
	case StateSelectResolution:
		return m.viewSelectResolution()
	case StateConfirm:
		return m.viewConfirm()
	case StateReconciling:
		return m.viewReconciling()
	case StateComplete:
		return m.viewComplete()
	case StateError:
		return m.viewError()
	}
	return ""
}
