package tui

type ApplicationState int

const (
	StateWelcome ApplicationState = iota
	StateUsernamePrompt
	StateOptionalPackages
	StateSelectResolution
	StateConfirm
	StateReconciling
	StateComplete
	StateError
)
