package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#5B8DEF")
	colorBrand  = lipgloss.Color("#FF6B6B")
	colorMuted  = lipgloss.Color("#888888")
	colorBorder = lipgloss.Color("#444444")

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorBrand).MarginBottom(1)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1)
	activeTab     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorAccent).Padding(0, 1)
	inactiveTab   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
)
