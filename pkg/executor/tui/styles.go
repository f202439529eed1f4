package tui

import "github.com/charmbracelet/lipgloss"

// Color Palette
// This is the single source of truth for all TUI colors.
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // Soft pastel salmon pink - primary accent
	coralPink   = lipgloss.Color("#FFCCCB") // Lighter coral accent - cursor
	mintGreen   = lipgloss.Color("#A8E6CF") // Soft mint green - filed corrections
	mutedGray   = lipgloss.Color("#6B7280") // Muted gray - secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // Bright white - primary text
)

// Common Styles
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	tipsStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	cursorStyle = lipgloss.NewStyle().
			Foreground(coralPink).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	weekendStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	filedStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	missingStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Italic(true)

	// Container Styles
	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	listBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)

	toastStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Background(mutedGray).
			Padding(0, 1)
)
