package tui

import "github.com/charmbracelet/lipgloss"

var (
	axisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("86"))

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	alertStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	windowOnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	bandStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)
