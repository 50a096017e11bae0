package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText     lipgloss.Color = "#cdd6f4"
	colorMuted    lipgloss.Color = "#a6adc8"
	colorBorder   lipgloss.Color = "#585b70"
	colorAccent   lipgloss.Color = "#89b4fa"
	colorSuccess  lipgloss.Color = "#a6e3a1"
	colorError    lipgloss.Color = "#f38ba8"
	colorWarn     lipgloss.Color = "#f9e2af"
	colorTabOff   lipgloss.Color = "#7f849c"
	colorMantle   lipgloss.Color = "#181825"
	colorSurface0 lipgloss.Color = "#313244"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	hintStyle    = lipgloss.NewStyle().Foreground(colorWarn).Italic(true)

	activeTabStyle = lipgloss.NewStyle().
			Background(colorSurface0).
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorTabOff).
				Padding(0, 1)
	tabSepStyle = lipgloss.NewStyle().Foreground(colorBorder)

	focusStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	blurStyle  = lipgloss.NewStyle().Foreground(colorText)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Background(colorSurface0)
	statusErrBarStyle = lipgloss.NewStyle().
				Foreground(colorError).
				Background(colorSurface0)
	footerStyle = lipgloss.NewStyle().Background(colorMantle)
	keyStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Background(colorMantle)
	descStyle   = lipgloss.NewStyle().Foreground(colorMuted).Background(colorMantle)
)
